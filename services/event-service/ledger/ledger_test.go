package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"civic-complaint-system/services/event-service/ledger"
	"civic-complaint-system/services/event-service/models"
	"civic-complaint-system/services/event-service/store"
)

func fixedLocator(lat, lng float64) ledger.Locator {
	return ledger.LocatorFunc(func(context.Context) (ledger.Position, error) {
		return ledger.Position{Latitude: lat, Longitude: lng}, nil
	})
}

type LedgerSuite struct {
	suite.Suite
	ctx context.Context
	led *ledger.Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.led = ledger.New(store.NewInMemory())
}

func (s *LedgerSuite) host(title string, date time.Time) *models.VolunteerEvent {
	e, err := s.led.CreateEvent(s.ctx, fixedLocator(12.9352, 77.6245), ledger.CreateInput{
		Title: title,
		Date:  date,
	})
	s.Require().NoError(err)
	return e
}

func (s *LedgerSuite) TestCreateEvent() {
	s.Run("hosts an event with an empty participant set", func() {
		e := s.host("Lake shoreline clean-up", time.Now().Add(48*time.Hour))
		s.NotEmpty(e.ID)
		s.Empty(e.Participants)
		s.Equal(12.9352, e.Latitude)
	})

	s.Run("requires a title", func() {
		_, err := s.led.CreateEvent(s.ctx, fixedLocator(12.9, 77.6), ledger.CreateInput{
			Date: time.Now(),
		})
		s.Require().ErrorIs(err, ledger.ErrMissingField)
	})

	s.Run("requires a date", func() {
		_, err := s.led.CreateEvent(s.ctx, fixedLocator(12.9, 77.6), ledger.CreateInput{
			Title: "No date drive",
		})
		s.Require().ErrorIs(err, ledger.ErrMissingField)
	})

	s.Run("aborts when the location fix fails", func() {
		failing := ledger.LocatorFunc(func(context.Context) (ledger.Position, error) {
			return ledger.Position{}, errors.New("gps off")
		})
		_, err := s.led.CreateEvent(s.ctx, failing, ledger.CreateInput{
			Title: "Park drive",
			Date:  time.Now(),
		})
		s.Require().ErrorIs(err, ledger.ErrLocationUnavailable)

		events, listErr := s.led.List(s.ctx)
		s.Require().NoError(listErr)
		s.Empty(events)
	})
}

func (s *LedgerSuite) TestJoinIsIdempotent() {
	e := s.host("Ward 12 drive", time.Now().Add(24*time.Hour))

	joined, err := s.led.Join(s.ctx, e.ID, "u1")
	s.Require().NoError(err)
	s.Equal([]string{"u1"}, joined.Participants)

	joined, err = s.led.Join(s.ctx, e.ID, "u1")
	s.Require().NoError(err)
	s.Equal([]string{"u1"}, joined.Participants)

	joined, err = s.led.Join(s.ctx, e.ID, "u2")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"u1", "u2"}, joined.Participants)
}

func (s *LedgerSuite) TestLeaveIsIdempotent() {
	e := s.host("Market street drive", time.Now().Add(24*time.Hour))

	_, err := s.led.Join(s.ctx, e.ID, "u1")
	s.Require().NoError(err)

	left, err := s.led.Leave(s.ctx, e.ID, "u1")
	s.Require().NoError(err)
	s.Empty(left.Participants)

	// Leaving again, or as a non-member, is a no-op.
	left, err = s.led.Leave(s.ctx, e.ID, "u1")
	s.Require().NoError(err)
	s.Empty(left.Participants)

	left, err = s.led.Leave(s.ctx, e.ID, "never-joined")
	s.Require().NoError(err)
	s.Empty(left.Participants)
}

func (s *LedgerSuite) TestUnknownEvent() {
	_, err := s.led.Join(s.ctx, "missing", "u1")
	s.Require().ErrorIs(err, ledger.ErrNotFound)

	_, err = s.led.Leave(s.ctx, "missing", "u1")
	s.Require().ErrorIs(err, ledger.ErrNotFound)
}

func (s *LedgerSuite) TestListOrderedByDate() {
	later := s.host("Later drive", time.Now().Add(72*time.Hour))
	sooner := s.host("Sooner drive", time.Now().Add(12*time.Hour))

	events, err := s.led.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(sooner.ID, events[0].ID)
	s.Equal(later.ID, events[1].ID)
}

func (s *LedgerSuite) TestConcurrentJoinLeaveConverges() {
	e := s.host("Convergence drive", time.Now().Add(24*time.Hour))

	done := make(chan struct{})
	for _, actor := range []string{"u1", "u2", "u3", "u4"} {
		go func(id string) {
			for i := 0; i < 25; i++ {
				_, _ = s.led.Join(s.ctx, e.ID, id)
			}
			done <- struct{}{}
		}(actor)
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	_, err := s.led.Leave(s.ctx, e.ID, "u4")
	s.Require().NoError(err)

	current, err := s.led.Get(s.ctx, e.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]string{"u1", "u2", "u3"}, current.Participants)
}
