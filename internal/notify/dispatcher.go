package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
)

// Dispatcher fans an inquiry out to every registered sink
type Dispatcher struct {
	registry *Registry
	validate *validator.Validate
}

// NewDispatcher creates a dispatcher over the registry's sinks
func NewDispatcher(registry *Registry) *Dispatcher {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		return name
	})
	return &Dispatcher{registry: registry, validate: v}
}

// Send validates the inquiry and delivers it to all sinks concurrently. Delivery is
// reported as successful only when every sink succeeded; otherwise the returned
// *DeliveryError lists each failed sink.
func (d *Dispatcher) Send(ctx context.Context, inquiry Inquiry) error {
	inquiry.Name = strings.TrimSpace(inquiry.Name)
	inquiry.Email = strings.TrimSpace(inquiry.Email)
	inquiry.Message = strings.TrimSpace(inquiry.Message)

	if err := d.check(inquiry); err != nil {
		return err
	}

	sinks := d.registry.Sinks()
	if len(sinks) == 0 {
		return ErrNotConfigured
	}

	var (
		mu       sync.Mutex
		failures = make(map[string]error)
		g        errgroup.Group
	)
	for _, sink := range sinks {
		sink := sink
		g.Go(func() error {
			if err := sink.Send(ctx, inquiry); err != nil {
				slog.Error("inquiry delivery failed", "sink", sink.Name(), "error", err)
				mu.Lock()
				failures[sink.Name()] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		return &DeliveryError{Failures: failures}
	}
	return nil
}

// HealthCheck reports the health of every registered sink
func (d *Dispatcher) HealthCheck(ctx context.Context) map[string]error {
	return d.registry.HealthCheckAll(ctx)
}

func (d *Dispatcher) check(inquiry Inquiry) error {
	err := d.validate.Struct(inquiry)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Errorf("%w: %s failed %s", ErrInvalidInquiry, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidInquiry, err)
}
