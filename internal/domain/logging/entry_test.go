package logging_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/logrelay/internal/domain/logging"
)

func TestNewEntry(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 45, 123456789, time.FixedZone("CET", 3600))

	tests := []struct {
		name          string
		params        logging.EntryParams
		wantMessage   string
		wantSource    string
		wantComponent string
	}{
		{"defaults", logging.EntryParams{Time: at, Message: "hi"}, "hi", logging.SourceFrontend, logging.DefaultComponent},
		{"empty message", logging.EntryParams{Time: at}, "(empty message)", logging.SourceFrontend, logging.DefaultComponent},
		{"blank message", logging.EntryParams{Time: at, Message: "  \t"}, "(empty message)", logging.SourceFrontend, logging.DefaultComponent},
		{"explicit tags", logging.EntryParams{Time: at, Message: "m", Source: "backend", Component: "auth"}, "m", "backend", "auth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := logging.NewEntry(tt.params)

			assert.Equal(t, "2024-03-01T11:30:45.123Z", entry.Timestamp)
			assert.Equal(t, tt.wantMessage, entry.Message)
			assert.Equal(t, tt.wantSource, entry.Source)
			assert.Equal(t, tt.wantComponent, entry.Component)
		})
	}
}

func TestNewEntry_SanitizesContext(t *testing.T) {
	entry := logging.NewEntry(logging.EntryParams{
		Level:   logging.LevelWarn,
		Message: "m",
		Context: logging.Fields{"fn": func() {}, "n": 1},
	})

	assert.Equal(t, logging.LevelWarn, entry.Level)
	assert.Equal(t, logging.Fields{"fn": logging.Unserializable, "n": 1}, entry.Context)
}
