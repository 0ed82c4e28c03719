package service

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// State is the lifecycle position of one upload
type State string

const (
	StateReceived    State = "received"
	StateParsing     State = "parsing"
	StateParseFailed State = "parse_failed"
	StateParsed      State = "parsed"
	StateSaving      State = "saving"
	StateSaved       State = "saved"
)

var transitions = map[State][]State{
	StateReceived: {StateParsing},
	StateParsing:  {StateParsed, StateParseFailed},
	StateParsed:   {StateSaving},
	StateSaving:   {StateSaved},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s State) canMoveTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type upload struct {
	id     uuid.UUID
	state  State
	logger *slog.Logger
}

func newUpload(logger *slog.Logger) *upload {
	id := uuid.New()
	up := &upload{
		id:     id,
		state:  StateReceived,
		logger: logger.With(slog.String("upload_id", id.String())),
	}
	up.logger.Debug("upload state", slog.String("state", string(up.state)))
	return up
}

func (u *upload) advance(next State) error {
	if !u.state.canMoveTo(next) {
		return fmt.Errorf("invalid upload transition %s -> %s", u.state, next)
	}
	u.logger.Debug("upload state",
		slog.String("from", string(u.state)),
		slog.String("state", string(next)),
	)
	u.state = next
	return nil
}
