package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"roomledger/internal/app"
	"roomledger/internal/domain"
)

// Handlers exposes the operator commands over HTTP. Each request is
// one operator action; the session serializes them internally.
type Handlers struct{ S *app.Session }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/hotels", h.listHotels)
		r.Post("/hotels", h.addHotel)
		r.Delete("/hotels/{hotel}", h.removeHotel)

		r.Get("/hotels/{hotel}/products", h.listProducts)
		r.Post("/hotels/{hotel}/products", h.addProduct)
		r.Post("/hotels/{hotel}/products/{index}/move", h.moveProduct)
		r.Delete("/hotels/{hotel}/products/{index}", h.removeProduct)

		r.Get("/staging", h.listStaged)
		r.Post("/staging", h.stageDates)
		r.Put("/staging", h.unstageDates)
		r.Delete("/staging", h.clearStaging)

		r.Post("/hotels/{hotel}/commit", h.commit)
		r.Get("/hotels/{hotel}/rows", h.listRows)
		r.Put("/hotels/{hotel}/rows", h.editRow)

		r.Get("/hotels/{hotel}/calendar", h.calendar)
		r.Post("/calendar/advance", h.advanceMonth)

		r.Get("/hotels/{hotel}/export", h.export)
	})
}

// ---- helpers ----

func hotelParam(r *http.Request) string {
	raw := chi.URLParam(r, "hotel")
	if dec, err := url.PathUnescape(raw); err == nil {
		return dec
	}
	return raw
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain sentinels onto HTTP statuses. Anything not
// in the taxonomy is a persistence failure: the operator's in-memory
// change may have been kept even though the store rejected the save.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		writeProblem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrBadDateRange),
		errors.Is(err, domain.ErrEmptyWeekdays),
		errors.Is(err, domain.ErrNoDates),
		errors.Is(err, domain.ErrNoProducts),
		errors.Is(err, domain.ErrMissingPrice),
		errors.Is(err, domain.ErrBadValue):
		writeProblem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		writeProblem(w, http.StatusBadGateway, "Persistence Failure", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrBadValue, s)
	}
	return d, nil
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	k := strings.ToLower(s)
	if len(k) > 3 {
		k = k[:3]
	}
	if wd, ok := weekdayNames[k]; ok {
		return wd, nil
	}
	return 0, fmt.Errorf("%w: weekday %q", domain.ErrBadValue, s)
}

// ---- catalog ----

func (h *Handlers) listHotels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"hotels": h.S.Hotels()})
}

func (h *Handlers) addHotel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeProblem(w, http.StatusBadRequest, "Validation Failed", "hotel name required")
		return
	}
	if err := h.S.AddHotel(r.Context(), req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"hotel": req.Name})
}

func (h *Handlers) removeHotel(w http.ResponseWriter, r *http.Request) {
	if err := h.S.RemoveHotel(r.Context(), hotelParam(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listProducts(w http.ResponseWriter, r *http.Request) {
	products := h.S.Products(hotelParam(r))
	out := make([]map[string]any, 0, len(products))
	for i, p := range products {
		out = append(out, map[string]any{"position": i, "name": p.Name, "code": p.Code})
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": out})
}

func (h *Handlers) addProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeProblem(w, http.StatusBadRequest, "Validation Failed", "product name required")
		return
	}
	if err := h.S.AddProduct(r.Context(), hotelParam(r), req.Name, req.Code); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": req.Name})
}

func (h *Handlers) moveProduct(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Index", "index must be a number")
		return
	}
	var req struct {
		Direction int `json:"direction"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Direction != -1 && req.Direction != 1 {
		writeProblem(w, http.StatusBadRequest, "Validation Failed", "direction must be -1 or 1")
		return
	}
	if err := h.S.MoveProduct(r.Context(), hotelParam(r), index, req.Direction); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) removeProduct(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Index", "index must be a number")
		return
	}
	if err := h.S.RemoveProduct(r.Context(), hotelParam(r), index); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- staging ----

func (h *Handlers) listStaged(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"dates": h.S.StagedLabels()})
}

func (h *Handlers) stageDates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Start    string   `json:"start"`
		End      string   `json:"end"`
		Weekdays []string `json:"weekdays"`
	}
	if !decode(w, r, &req) {
		return
	}
	start, err := parseDate(req.Start)
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseDate(req.End)
	if err != nil {
		writeError(w, err)
		return
	}
	weekdays := make([]time.Weekday, 0, len(req.Weekdays))
	for _, s := range req.Weekdays {
		wd, err := parseWeekday(s)
		if err != nil {
			writeError(w, err)
			return
		}
		weekdays = append(weekdays, wd)
	}
	added, err := h.S.StageDates(start, end, weekdays)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]any{"added": added, "dates": h.S.StagedLabels()}
	if added == 0 {
		resp["warning"] = "no matching weekday in range"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) unstageDates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Dates []string `json:"dates"`
	}
	if !decode(w, r, &req) {
		return
	}
	keep := make([]time.Time, 0, len(req.Dates))
	for _, s := range req.Dates {
		// accept either plain dates or the staged display labels
		if i := strings.IndexByte(s, ' '); i > 0 {
			s = s[:i]
		}
		d, err := parseDate(s)
		if err != nil {
			writeError(w, err)
			return
		}
		keep = append(keep, d)
	}
	h.S.UnstageDates(keep)
	writeJSON(w, http.StatusOK, map[string]any{"dates": h.S.StagedLabels()})
}

func (h *Handlers) clearStaging(w http.ResponseWriter, r *http.Request) {
	h.S.ClearStaging()
	w.WriteHeader(http.StatusNoContent)
}

// ---- ledger ----

type productSettingReq struct {
	Product string  `json:"product"`
	Price   *int64  `json:"price"`
	Stock   *int    `json:"stock"`
	Status  *string `json:"status"`
}

func (h *Handlers) commit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Products []productSettingReq `json:"products"`
	}
	if !decode(w, r, &req) {
		return
	}
	settings := make([]domain.ProductSetting, 0, len(req.Products))
	for _, p := range req.Products {
		s := domain.ProductSetting{Product: p.Product, Price: p.Price, Stock: domain.DefaultStock}
		if p.Stock != nil {
			s.Stock = *p.Stock
		}
		if p.Status != nil {
			st, err := domain.ParseSaleStatus(*p.Status)
			if err != nil {
				writeError(w, err)
				return
			}
			s.Status = st
		}
		settings = append(settings, s)
	}
	written, err := h.S.Commit(r.Context(), hotelParam(r), settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"written": written})
}

type rowJSON struct {
	Date    string `json:"date"`
	Product string `json:"product"`
	Price   int64  `json:"price"`
	Stock   int    `json:"stock"`
	Status  string `json:"status"`
}

func toRowJSON(r domain.Row) rowJSON {
	return rowJSON{
		Date:    r.Date.Format("2006-01-02"),
		Product: r.Product,
		Price:   r.Price,
		Stock:   r.Stock,
		Status:  r.Status.Mark(),
	}
}

func (h *Handlers) listRows(w http.ResponseWriter, r *http.Request) {
	hotel := hotelParam(r)
	var (
		rows []domain.Row
		err  error
	)
	if m := r.URL.Query().Get("month"); m != "" {
		ym, perr := domain.ParseYearMonth(m)
		if perr != nil {
			writeError(w, perr)
			return
		}
		rows, err = h.S.RowsForMonth(r.Context(), hotel, ym)
	} else {
		rows, err = h.S.Rows(r.Context(), hotel)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]rowJSON, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRowJSON(row))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rows": out})
}

func (h *Handlers) editRow(w http.ResponseWriter, r *http.Request) {
	var req rowJSON
	if !decode(w, r, &req) {
		return
	}
	d, err := parseDate(req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	status := domain.StatusOpen
	if req.Status != "" {
		if status, err = domain.ParseSaleStatus(req.Status); err != nil {
			writeError(w, err)
			return
		}
	}
	row := domain.Row{
		Date:    d,
		Hotel:   hotelParam(r),
		Product: req.Product,
		Price:   req.Price,
		Stock:   req.Stock,
		Status:  status,
	}
	if err := h.S.EditRow(r.Context(), row); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRowJSON(row))
}

// ---- calendar ----

func (h *Handlers) calendar(w http.ResponseWriter, r *http.Request) {
	mode, err := domain.ParseViewMode(r.URL.Query().Get("view"))
	if err != nil {
		writeError(w, err)
		return
	}
	var ym *domain.YearMonth
	if m := r.URL.Query().Get("month"); m != "" {
		parsed, perr := domain.ParseYearMonth(m)
		if perr != nil {
			writeError(w, perr)
			return
		}
		ym = &parsed
	}
	grid, err := h.S.Calendar(r.Context(), hotelParam(r), ym, mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

func (h *Handlers) advanceMonth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Delta == 0 {
		req.Delta = 1
	}
	ym := h.S.AdvanceMonth(req.Delta)
	writeJSON(w, http.StatusOK, map[string]any{"month": ym.String()})
}

// ---- export ----

func (h *Handlers) export(w http.ResponseWriter, r *http.Request) {
	hotel := hotelParam(r)
	f, err := h.S.Export(hotel)
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()
	name := fmt.Sprintf("[%s]_upload_%s.xlsx", hotel, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+url.PathEscape(name)+`"`)
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("write export workbook failed")
	}
}
