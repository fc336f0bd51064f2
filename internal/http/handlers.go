package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/example/ride-booking-bot/internal/chat"
	"github.com/example/ride-booking-bot/internal/dispatch"
	"github.com/example/ride-booking-bot/internal/geo"
	"github.com/example/ride-booking-bot/internal/geocoding"
	"github.com/example/ride-booking-bot/internal/ledger"
	"github.com/example/ride-booking-bot/internal/models"
)

// EventHandler consumes inbound conversation events.
type EventHandler interface {
	Handle(ctx context.Context, ev chat.Event)
}

// LocationPublisher fans operator locations out to other consumers.
type LocationPublisher interface {
	PublishLocation(ctx context.Context, loc models.OperatorLocation) error
}

type RideQuerier interface {
	Query(pred func(models.Ride) bool) []models.Ride
}

// Deps wires the server to the rest of the bot. Geocoder and Publisher are optional.
// A non-empty TwilioAuthToken turns on X-Twilio-Signature checks for the
// webhook; TwilioWebhookURL is the public URL Twilio signs when the bot sits
// behind a proxy.
type Deps struct {
	Dialogue         EventHandler
	Operators        geo.Store
	OperatorID       string
	Geocoder         geocoding.Geocoder
	Publisher        LocationPublisher
	Rides            RideQuerier
	WSReg            *dispatch.WSRegistry
	TwilioFrom       string
	TwilioAuthToken  string
	TwilioWebhookURL string
	CORSOrigins      []string
	Logger           *slog.Logger
}

type Server struct {
	d        Deps
	validate *validator.Validate
	logger   *slog.Logger
	mux      *mux.Router
	handler  http.Handler
	now      func() time.Time
}

func NewServer(d Deps) *Server {
	s := &Server{
		d:        d,
		validate: validator.New(),
		logger:   d.Logger.With("component", "http"),
		mux:      mux.NewRouter(),
		now:      time.Now,
	}
	s.registerMiddleware()
	s.routes()
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	}).Handler(s.mux)
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/webhook/twilio", s.handleTwilioWebhook).Methods("POST")
	s.mux.HandleFunc("/api/v1/events", s.handleEvent).Methods("POST")
	s.mux.HandleFunc("/api/v1/rides", s.handleListRides).Methods("GET")
	s.mux.HandleFunc("/operator/location", s.handleUpdateOperatorLocation).Methods("POST")
	s.mux.HandleFunc("/operator/location", s.handleGetOperatorLocation).Methods("GET")
	s.mux.HandleFunc("/status", s.handleStatus).Methods("GET")
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/ws", s.handleWS)
	s.mux.HandleFunc("/ws/{console_id}", s.handleWS)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

// The dialogue turn outlives a dropped webhook connection.
func turnContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

func (s *Server) handleTwilioWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if s.d.TwilioAuthToken != "" &&
		!chat.VerifyTwilioSignature(s.d.TwilioAuthToken, s.webhookURL(r), r.PostForm, r.Header.Get("X-Twilio-Signature")) {
		s.logger.Warn("rejected unsigned twilio webhook", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)
		return
	}
	ev := chat.EventFromTwilioForm(r.PostForm, s.d.TwilioFrom)
	if err := s.validate.Struct(ev); err != nil {
		http.Error(w, "missing From", 400)
		return
	}
	s.d.Dialogue.Handle(turnContext(r), ev)
	w.Header().Set("Content-Type", "text/xml")
	w.Write([]byte("<Response></Response>"))
}

// webhookURL is the URL Twilio computed its signature over.
func (s *Server) webhookURL(r *http.Request) string {
	if s.d.TwilioWebhookURL != "" {
		return s.d.TwilioWebhookURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

type sharedLocation struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

type eventRequest struct {
	SenderID       string          `json:"sender_id" validate:"required"`
	Text           string          `json:"text"`
	SharedLocation *sharedLocation `json:"shared_location" validate:"omitempty"`
	IsFromSelf     bool            `json:"is_from_self"`
}

func (e eventRequest) event() chat.Event {
	ev := chat.Event{SenderID: e.SenderID, Text: e.Text, IsFromSelf: e.IsFromSelf}
	if e.SharedLocation != nil {
		ev.SharedLocation = &models.Coord{Lat: *e.SharedLocation.Latitude, Lon: *e.SharedLocation.Longitude}
	}
	return ev
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}
	s.d.Dialogue.Handle(turnContext(r), req.event())
	w.WriteHeader(http.StatusAccepted)
}

type locationUpdate struct {
	Latitude  *float64   `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64   `json:"longitude" validate:"required,min=-180,max=180"`
	Accuracy  float64    `json:"accuracy" validate:"gte=0"`
	Timestamp *time.Time `json:"timestamp"`
}

func (s *Server) handleUpdateOperatorLocation(w http.ResponseWriter, r *http.Request) {
	var in locationUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, err.Error(), 400)
		return
	}
	if err := s.validate.Struct(in); err != nil {
		writeValidationError(w, err)
		return
	}
	loc := models.OperatorLocation{
		OperatorID: s.d.OperatorID,
		Loc:        models.Coord{Lat: *in.Latitude, Lon: *in.Longitude},
		Accuracy:   in.Accuracy,
		Source:     "push",
		Updated:    s.now(),
	}
	if in.Timestamp != nil {
		loc.Updated = *in.Timestamp
	}
	if s.d.Geocoder != nil {
		if cands, err := s.d.Geocoder.Reverse(r.Context(), loc.Loc); err == nil && len(cands) > 0 {
			loc.Address = cands[0].FormattedAddress
		} else if err != nil {
			s.logger.Warn("reverse geocoding operator location failed", "error", err)
		}
	}
	if err := s.d.Operators.Upsert(r.Context(), loc); err != nil {
		s.logger.Error("failed to store operator location", "error", err)
		http.Error(w, "failed to store location", 500)
		return
	}
	if s.d.Publisher != nil {
		if err := s.d.Publisher.PublishLocation(r.Context(), loc); err != nil {
			s.logger.Warn("failed to publish operator location", "error", err)
		}
	}
	s.logger.Info("operator location updated", "lat", loc.Loc.Lat, "lon", loc.Loc.Lon, "accuracy", loc.Accuracy)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "location": loc})
}

func (s *Server) handleGetOperatorLocation(w http.ResponseWriter, r *http.Request) {
	loc, err := s.d.Operators.Current(r.Context(), s.d.OperatorID)
	if errors.Is(err, geo.ErrUnknownOperator) {
		http.Error(w, "location not available", 404)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), 500)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"online": true, "timestamp": s.now().UTC()})
}

var knownStatuses = map[models.RideStatus]bool{
	models.RidePending:    true,
	models.RideScheduled:  true,
	models.RideConfirmed:  true,
	models.RideInProgress: true,
	models.RideCompleted:  true,
	models.RideCancelled:  true,
}

func (s *Server) handleListRides(w http.ResponseWriter, r *http.Request) {
	var preds []func(models.Ride) bool
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		st := models.RideStatus(strings.ToUpper(v))
		if !knownStatuses[st] {
			http.Error(w, "unknown status", 400)
			return
		}
		preds = append(preds, ledger.ByStatus(st))
	}
	if v := q.Get("client"); v != "" {
		preds = append(preds, ledger.ByClient(v))
	}
	rides := s.d.Rides.Query(ledger.All(preds...))
	writeJSON(w, http.StatusOK, map[string]any{"rides": rides, "count": len(rides)})
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["console_id"]
	if id == "" {
		id = uuid.NewString()
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sess := s.d.WSReg.Add(id, conn)
	s.logger.Info("operator console connected", "console_id", id)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.d.WSReg.Drop(id, sess)
				s.logger.Info("operator console disconnected", "console_id", id)
				return
			}
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		http.Error(w, err.Error(), 400)
		return
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+":"+fe.Tag())
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation failed", "fields": fields})
}
