package health

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mbd888/scamcheck/internal/flows"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Database reports whether db answers a ping within timeout.
func Database(db Pinger, timeout time.Duration) Checker {
	return func(ctx context.Context) Status {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return Status{Name: "database", Healthy: false, Detail: err.Error()}
		}
		return Status{Name: "database", Healthy: true}
	}
}

// FlowCatalog reports whether every category in categories has a
// non-empty flow in source.
func FlowCatalog(source flows.Source, categories []string) Checker {
	return func(ctx context.Context) Status {
		var missing []string
		for _, category := range categories {
			f, err := source.GetFlow(ctx, category)
			if err != nil || f.Len() == 0 {
				missing = append(missing, category)
			}
		}
		if len(missing) > 0 {
			return Status{
				Name:    "flows",
				Healthy: false,
				Detail:  fmt.Sprintf("unavailable: %s", strings.Join(missing, ", ")),
			}
		}
		return Status{Name: "flows", Healthy: true, Detail: fmt.Sprintf("%d categories", len(categories))}
	}
}
