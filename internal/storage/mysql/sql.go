package mysql

// The external contract is row-oriented: hotels is one name per row,
// products is (hotel, name, code) with position encoded by row order,
// ledger_<hotel> is (date, hotel, product, price, stock, status) with
// dates as YYYY-MM-DD and status as Y/N. SQL rows carry no inherent
// order, so each table gets a seq column that exists only to make the
// logical row order explicit.

const createHotelsSQL = `
CREATE TABLE IF NOT EXISTS hotels (
  seq   INT NOT NULL,
  hotel VARCHAR(255) NOT NULL,
  PRIMARY KEY (seq)
)`

const createProductsSQL = `
CREATE TABLE IF NOT EXISTS products (
  seq   INT NOT NULL,
  hotel VARCHAR(255) NOT NULL,
  name  VARCHAR(255) NOT NULL,
  code  VARCHAR(255) NOT NULL DEFAULT '',
  PRIMARY KEY (seq)
)`

// Ledger tables are created per hotel; %s is the quoted table name.
const createLedgerSQLFmt = `
CREATE TABLE IF NOT EXISTS %s (
  seq     INT NOT NULL,
  date    CHAR(10) NOT NULL,
  hotel   VARCHAR(255) NOT NULL,
  product VARCHAR(255) NOT NULL,
  price   BIGINT NOT NULL,
  stock   INT NOT NULL,
  status  CHAR(1) NOT NULL,
  PRIMARY KEY (seq)
)`

const selectHotelsSQL = `SELECT hotel FROM hotels ORDER BY seq`

const selectProductsSQL = `SELECT hotel, name, code FROM products ORDER BY seq`

const selectLedgerSQLFmt = `SELECT date, hotel, product, price, stock, status FROM %s ORDER BY seq`

const insertHotelsPrefix = `INSERT INTO hotels (seq, hotel) VALUES `

const insertProductsPrefix = `INSERT INTO products (seq, hotel, name, code) VALUES `

const insertLedgerPrefixFmt = `INSERT INTO %s (seq, date, hotel, product, price, stock, status) VALUES `
