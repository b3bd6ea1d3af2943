package server

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/sensorstack/telemetryd/internal/log"
	"github.com/sensorstack/telemetryd/internal/measurement"
	"github.com/sensorstack/telemetryd/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	server    *Server
	formatter *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(s *Server) *Handlers {
	return &Handlers{
		server:    s,
		formatter: responseformat.NewFormatter(),
	}
}

// identityFromRequest builds the measurement identity from path and query
// parameters, applying the model sentinel and validating the type and
// interval tokens.
func identityFromRequest(req *http.Request) (measurement.TableIdentity, error) {
	vars := mux.Vars(req)
	q := req.URL.Query()

	identity := measurement.TableIdentity{
		SensorBrand: vars["brand"],
		SensorID:    vars["sensor"],
		Model:       q.Get("model"),
		Type:        q.Get("type"),
		Interval:    q.Get("interval"),
	}
	if identity.Type == "" {
		identity.Type = measurement.TypeRaw
	}
	if identity.Interval == "" {
		identity.Interval = measurement.IntervalHourly
	}

	if !measurement.ValidType(identity.Type) {
		return identity, fmt.Errorf("invalid measurement type %q", identity.Type)
	}
	if !measurement.ValidInterval(identity.Interval) {
		return identity, fmt.Errorf("invalid time interval %q", identity.Interval)
	}
	return identity.Normalized(), nil
}

// writeCoreError maps measurement core errors to HTTP status codes.
// Validation failures are the caller's to fix; storage faults are not.
func writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, measurement.ErrInvalidSchema),
		errors.Is(err, measurement.ErrSchemaMismatch),
		errors.Is(err, measurement.ErrMalformedTimestamp),
		errors.Is(err, measurement.ErrInvalidTargetCount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, measurement.ErrDuplicateTimestamp):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, measurement.ErrTableNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, measurement.ErrEmptyResult):
		http.Error(w, "no measurement data found", http.StatusNotFound)
	default:
		log.Errorf("storage error: %v", err)
		http.Error(w, "storage error", http.StatusInternalServerError)
	}
}

// registerRequest is the payload for measurement registration.
type registerRequest struct {
	Model    string               `json:"measurement_model,omitempty"`
	Type     string               `json:"measurement_type"`
	Interval string               `json:"measurement_time_interval"`
	Columns  []measurement.Column `json:"columns"`
}

// RegisterMeasurement provisions a measurement table for a sensor.
func (h *Handlers) RegisterMeasurement(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)

	var body registerRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	identity := measurement.TableIdentity{
		SensorBrand: vars["brand"],
		SensorID:    vars["sensor"],
		Model:       body.Model,
		Type:        body.Type,
		Interval:    body.Interval,
	}.Normalized()

	if !measurement.ValidType(identity.Type) {
		http.Error(w, fmt.Sprintf("invalid measurement type %q", identity.Type), http.StatusBadRequest)
		return
	}
	if !measurement.ValidInterval(identity.Interval) {
		http.Error(w, fmt.Sprintf("invalid time interval %q", identity.Interval), http.StatusBadRequest)
		return
	}
	if len(body.Columns) == 0 {
		http.Error(w, "columns are required", http.StatusBadRequest)
		return
	}

	result, err := h.server.provisioner.Provision(req.Context(), identity, measurement.Schema(body.Columns))
	if err != nil {
		writeCoreError(w, err)
		return
	}

	if result == measurement.AlreadyExists {
		h.formatter.WriteResponse(w, req, map[string]string{
			"result": "already_exists",
			"table":  identity.TableName(),
		}, nil)
		return
	}

	// Provision validated the schema, so the temporal lookup cannot fail.
	temporal, _ := measurement.Schema(body.Columns).TemporalColumn()

	log.Infof("provisioned measurement table %s", identity.TableName())
	h.formatter.WriteResponseWithStatus(w, req, http.StatusCreated, map[string]string{
		"result":          "created",
		"table":           identity.TableName(),
		"temporal_column": temporal,
	}, nil)
}

// ingestRequest is the payload for structured-record ingestion.
type ingestRequest struct {
	Records []measurement.Record `json:"records"`
}

// IngestRecords appends a batch of structured records. An empty batch is
// a no-op reporting zero inserted rows.
func (h *Handlers) IngestRecords(w http.ResponseWriter, req *http.Request) {
	identity, err := identityFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body ingestRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	inserted, err := h.server.ingestor.Ingest(req.Context(), identity, body.Records)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	h.formatter.WriteResponse(w, req, map[string]int64{"inserted": inserted}, nil)
}

// UploadCSV appends a batch parsed from an uploaded delimited file. The
// first row is the header naming the columns; zero data rows is a no-op.
func (h *Handlers) UploadCSV(w http.ResponseWriter, req *http.Request) {
	identity, err := identityFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, _, err := req.FormFile("file")
	if err != nil {
		http.Error(w, "file form field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	records, err := parseCSVRecords(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	inserted, err := h.server.ingestor.Ingest(req.Context(), identity, records)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	h.formatter.WriteResponse(w, req, map[string]int64{"inserted": inserted}, nil)
}

// parseCSVRecords streams delimited rows into records keyed by the header
// row. Cell values are coerced to int64, then float64, else kept as text,
// so numeric columns survive the trip through the text format.
func parseCSVRecords(r io.Reader) ([]measurement.Record, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var records []measurement.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row %d: %w", len(records)+2, err)
		}

		rec := make(measurement.Record, len(header))
		for i, name := range header {
			if i < len(row) {
				rec[name] = coerceCSVValue(row[i])
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func coerceCSVValue(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// parseRange extracts and permissively parses the start and end query
// parameters.
func parseRange(req *http.Request) (time.Time, time.Time, error) {
	q := req.URL.Query()
	startStr := q.Get("start")
	endStr := q.Get("end")
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start and end parameters are required")
	}

	start, err := measurement.ParseTimestamp(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %v", startStr)
	}
	end, err := measurement.ParseTimestamp(endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %v", endStr)
	}
	return start, end, nil
}

// GetRange returns rows in (start, end), optionally downsampled to
// points windows. The plain fetch path uses exclusive bounds.
func (h *Handlers) GetRange(w http.ResponseWriter, req *http.Request) {
	identity, err := identityFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start, end, err := parseRange(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.server.engine.RangeQuery(req.Context(), identity, start, end, measurement.BoundsExclusive)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	if pointsStr := req.URL.Query().Get("points"); pointsStr != "" {
		points, err := strconv.Atoi(pointsStr)
		if err != nil {
			http.Error(w, "invalid points parameter", http.StatusBadRequest)
			return
		}

		_, temporal, err := h.server.engine.Columns(req.Context(), identity)
		if err != nil {
			writeCoreError(w, err)
			return
		}

		rows, err = measurement.Downsample(rows, temporal, points)
		if err != nil {
			writeCoreError(w, err)
			return
		}
	}

	h.formatter.WriteResponse(w, req, map[string]interface{}{
		"count": len(rows),
		"rows":  rows,
	}, nil)
}

// ExportCSV streams rows in [start, end] as a CSV attachment. The export
// path uses inclusive bounds.
func (h *Handlers) ExportCSV(w http.ResponseWriter, req *http.Request) {
	identity, err := identityFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start, end, err := parseRange(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.server.engine.RangeQuery(req.Context(), identity, start, end, measurement.BoundsInclusive)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	cols, _, err := h.server.engine.Columns(req.Context(), identity)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	out, err := measurement.ExportCSV(rows, measurement.Schema(cols).Names())
	if err != nil {
		log.Errorf("CSV export failed: %v", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", identity.TableName()))
	w.Write([]byte(out))
}

// GetLatest returns the most recent row for a measurement stream.
func (h *Handlers) GetLatest(w http.ResponseWriter, req *http.Request) {
	identity, err := identityFromRequest(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	row, err := h.server.engine.LastRow(req.Context(), identity)
	if err != nil {
		writeCoreError(w, err)
		return
	}

	h.formatter.WriteResponse(w, req, row, nil)
}

// Health reports liveness.
func (h *Handlers) Health(w http.ResponseWriter, req *http.Request) {
	h.formatter.WriteResponse(w, req, map[string]string{"status": "ok"}, nil)
}
