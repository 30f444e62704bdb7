package reminder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hackgods/medischedule/internal/appointment"
	"github.com/hackgods/medischedule/internal/metrics"
)

var (
	ErrInvalidRequest   = errors.New("invalid reminder request")
	ErrGenerationFailed = errors.New("reminder generation failed")
	ErrNotConfigured    = errors.New("reminder generation is not configured")
)

// Request describes the appointment a reminder is written for.
// AppointmentDateTime is an ISO-like local time such as 2024-08-15T14:30.
type Request struct {
	PatientName         string `json:"patientName" validate:"required"`
	AppointmentDateTime string `json:"appointmentDateTime" validate:"required"`
	Location            string `json:"location" validate:"required"`
	SpecialInstructions string `json:"specialInstructions,omitempty"`
}

type Response struct {
	ReminderMessage string `json:"reminderMessage" validate:"required"`
}

// Generator turns a request into reminder text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// AppointmentSource loads stored appointments with their display names.
type AppointmentSource interface {
	Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	Describe(ctx context.Context, a appointment.Appointment) appointment.View
}

type Config struct {
	Generator    Generator
	Appointments AppointmentSource
	Cache        *redis.Client
	CacheTTL     time.Duration
	Metrics      *metrics.ReminderMetrics
	Logger       *zap.Logger
}

type Service struct {
	gen       Generator
	appts     AppointmentSource
	cache     *redis.Client
	ttl       time.Duration
	validator *validator.Validate
	metrics   *metrics.ReminderMetrics
	logger    *zap.Logger
}

func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &Service{
		gen:       cfg.Generator,
		appts:     cfg.Appointments,
		cache:     cfg.Cache,
		ttl:       cfg.CacheTTL,
		validator: validator.New(),
		metrics:   cfg.Metrics,
		logger:    cfg.Logger,
	}
}

// Configured reports whether a generator is wired in.
func (s *Service) Configured() bool {
	return s.gen != nil
}

// Generate validates req and returns a reminder, from the cache when an
// identical request was answered before.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	req = normalize(req)
	if err := s.validator.Struct(req); err != nil {
		s.metrics.ObserveRequest("invalid")
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, describe(err))
	}
	if s.gen == nil {
		return nil, ErrNotConfigured
	}

	key := cacheKey(req)
	if msg, ok := s.cached(ctx, key); ok {
		s.metrics.ObserveRequest("cached")
		return &Response{ReminderMessage: msg}, nil
	}

	start := time.Now()
	text, err := s.gen.Generate(ctx, req)
	s.metrics.ObserveLatency(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ObserveRequest("failed")
		s.logger.Warn("generate reminder", zap.String("patient", req.PatientName), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	resp := &Response{ReminderMessage: strings.TrimSpace(text)}
	if err := s.validator.Struct(resp); err != nil {
		s.metrics.ObserveRequest("failed")
		return nil, fmt.Errorf("%w: empty message", ErrGenerationFailed)
	}

	s.store(ctx, key, resp.ReminderMessage)
	s.metrics.ObserveRequest("generated")
	return resp, nil
}

// ForAppointment writes a reminder for a stored appointment. Virtual
// appointments without a location point the patient at the call link.
func (s *Service) ForAppointment(ctx context.Context, id uuid.UUID, instructions string) (*Response, error) {
	if s.appts == nil {
		return nil, ErrNotConfigured
	}
	appt, err := s.appts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Generate(ctx, RequestFor(s.appts.Describe(ctx, *appt), instructions))
}

// RequestFor builds the reminder request of an appointment.
func RequestFor(v appointment.View, instructions string) Request {
	location := v.Location
	if location == "" {
		location = v.VideoCallLink
	}
	return Request{
		PatientName:         v.PatientName,
		AppointmentDateTime: v.DateTime.Format("2006-01-02T15:04"),
		Location:            location,
		SpecialInstructions: instructions,
	}
}

func normalize(req Request) Request {
	req.PatientName = strings.TrimSpace(req.PatientName)
	req.AppointmentDateTime = strings.TrimSpace(req.AppointmentDateTime)
	req.Location = strings.TrimSpace(req.Location)
	req.SpecialInstructions = strings.TrimSpace(req.SpecialInstructions)
	return req
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" is "+fe.Tag())
	}
	return strings.Join(fields, ", ")
}

func cacheKey(req Request) string {
	data, _ := json.Marshal(req)
	sum := sha256.Sum256(data)
	return "reminder:" + hex.EncodeToString(sum[:])
}

func (s *Service) cached(ctx context.Context, key string) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	msg, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("read reminder cache", zap.Error(err))
		}
		return "", false
	}
	return msg, true
}

func (s *Service) store(ctx context.Context, key, msg string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, msg, s.ttl).Err(); err != nil {
		s.logger.Warn("write reminder cache", zap.Error(err))
	}
}
