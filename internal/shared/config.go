package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	// STORE_DRIVER picks the table-store backend: "xlsx" (default)
	// keeps everything in one workbook file, "mysql" uses a database.
	StoreDriver string
	MySQLDSN    string
	XLSXPath    string

	RedisAddr string
	RedisDB   int
	RedisPass string
	CacheTTL  time.Duration

	WeekStart time.Weekday
	SaveRPS   int

	ExportDir     string
	ExportWorkers int
}

func Load() Config {
	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:        env("APP_ENV", "prod"),
		HTTPAddr:      env("HTTP_ADDR", ":8080"),
		MetricsAddr:   env("METRICS_ADDR", ":9100"),
		StoreDriver:   env("STORE_DRIVER", "xlsx"),
		MySQLDSN:      env("MYSQL_DSN", "root:root@tcp(localhost:3306)/roomledger?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		XLSXPath:      env("XLSX_PATH", "roomledger.xlsx"),
		RedisAddr:     env("REDIS_ADDR", "localhost:6379"),
		RedisDB:       atoi("REDIS_DB", 0),
		RedisPass:     env("REDIS_PASSWORD", ""),
		CacheTTL:      time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		WeekStart:     parseWeekStart(env("WEEK_START", "sunday")),
		SaveRPS:       atoi("SAVE_RPS", 5),
		ExportDir:     env("EXPORT_DIR", "."),
		ExportWorkers: atoi("EXPORT_WORKERS", 4),
	}
	if c.StoreDriver != "xlsx" && c.StoreDriver != "mysql" {
		log.Warn().Str("driver", c.StoreDriver).Msg("unknown STORE_DRIVER, falling back to xlsx")
		c.StoreDriver = "xlsx"
	}
	return c
}

func parseWeekStart(v string) time.Weekday {
	switch strings.ToLower(v) {
	case "monday", "mon":
		return time.Monday
	case "saturday", "sat":
		return time.Saturday
	default:
		return time.Sunday
	}
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
