package remote

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"alquitones/internal/domain"
	applog "alquitones/internal/log"
)

const DefaultBatchSize = 5

// EnrichedReservation is a reservation with its instrument and user resolved.
// Either is nil when the lookup failed.
type EnrichedReservation struct {
	domain.Reservation
	Instrument *domain.Product `json:"instrument"`
	User       *domain.User    `json:"user"`
}

// Enricher resolves related records for reservation lists, at most
// BatchSize instrument lookups in flight at once.
type Enricher struct {
	API       API
	BatchSize int
	log       zerolog.Logger
}

func NewEnricher(api API, batchSize int) *Enricher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Enricher{API: api, BatchSize: batchSize, log: applog.Component("remote")}
}

// Reservations looks up each instrument in groups of BatchSize, waiting for a
// group to finish before starting the next. Users come from one list call.
func (e *Enricher) Reservations(ctx context.Context, list []domain.Reservation) []EnrichedReservation {
	out := make([]EnrichedReservation, len(list))
	for i, r := range list {
		out[i].Reservation = r
	}

	users := map[int]domain.User{}
	if all, err := e.API.Users(ctx); err != nil {
		e.log.Warn().Err(err).Msg("enrich.users.fail")
	} else {
		for _, u := range all {
			users[u.ID] = u.Public()
		}
	}

	for start := 0; start < len(out); start += e.BatchSize {
		end := min(start+e.BatchSize, len(out))
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				if u, ok := users[out[i].UserID]; ok {
					out[i].User = &u
				}
				p, err := e.API.Instrument(ctx, out[i].InstrumentID)
				if err != nil {
					e.log.Debug().Err(err).Int("reservation", out[i].ID).Msg("enrich.instrument.fail")
					return nil
				}
				out[i].Instrument = &p
				return nil
			})
		}
		_ = g.Wait()
	}
	return out
}
