// internal/dashboard/store.go
//
// Dashboard persistence.
//
// Context
// -------
// Dashboards are opaque `.rdash` documents owned by the dashboard SDK.  The
// gateway only lists, loads, saves, deletes, and answers "does a dashboard
// with this name already exist?" for the save dialog.  Two backends share the
// Store contract:
//
//   • FileStore – `<dir>/<name>.rdash` on local disk (default).
//   • SQLStore  – one row per dashboard in the `dashboard` table.
//
// Names are validated identically by both so a name that is legal on one
// backend is legal on the other.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/dashgate/internal/metrics"
)

var (
	ErrNotFound    = errors.New("dashboard not found")
	ErrInvalidName = errors.New("invalid dashboard name")
)

// Store is the persistence contract used by the provider and the API.
type Store interface {
	Names(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, name string) (bool, error)
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, body []byte) error
	Delete(ctx context.Context, name string) error
}

// IsDuplicate reports whether name is already taken in s.
func IsDuplicate(ctx context.Context, s Store, name string) (bool, error) {
	return s.Exists(ctx, name)
}

const maxNameLen = 200

// ValidateName rejects names that could escape the storage directory or
// that no file system would accept.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case len(name) > maxNameLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxNameLen)
	case name == "." || name == ".." || strings.Contains(name, ".."):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\:*?"<>|`):
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidName, name)
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: control character", ErrInvalidName)
		}
	}
	return nil
}

// Instrumented wraps s so every operation is counted in
// dashboard_ops_total.
func Instrumented(s Store) Store { return instrumented{s} }

type instrumented struct{ next Store }

func (i instrumented) Names(ctx context.Context) ([]string, error) {
	names, err := i.next.Names(ctx)
	observe("names", err)
	return names, err
}

func (i instrumented) Exists(ctx context.Context, name string) (bool, error) {
	ok, err := i.next.Exists(ctx, name)
	observe("exists", err)
	return ok, err
}

func (i instrumented) Load(ctx context.Context, name string) ([]byte, error) {
	b, err := i.next.Load(ctx, name)
	observe("load", err)
	return b, err
}

func (i instrumented) Save(ctx context.Context, name string, body []byte) error {
	err := i.next.Save(ctx, name, body)
	observe("save", err)
	return err
}

func (i instrumented) Delete(ctx context.Context, name string) error {
	err := i.next.Delete(ctx, name)
	observe("delete", err)
	return err
}

func observe(op string, err error) {
	metrics.DashboardOpsTotal.WithLabelValues(op, metrics.Result(err)).Inc()
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidName) {
		zap.L().Error("dashboard store", zap.String("op", op), zap.Error(err))
	}
}
