// Package fixtures loads contacts and updates from a YAML file and can watch
// that file for edits. Without a file the built-in set from package social
// is used.
package fixtures

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"kinship/internal/social"
)

var (
	// ErrUnknownContact marks an update whose contact_id does not resolve.
	ErrUnknownContact = errors.New("fixtures: update references unknown contact")
	// ErrDuplicateID marks a repeated contact or update ID.
	ErrDuplicateID = errors.New("fixtures: duplicate id")
	// ErrInvalidField marks an enumeration or range violation.
	ErrInvalidField = errors.New("fixtures: invalid field")
)

// Set is a consistent collection of contacts and updates.
type Set struct {
	Contacts []social.Contact
	Updates  []social.Update
}

// Default returns the built-in fixtures with timestamps relative to now.
func Default(now time.Time) Set {
	return Set{Contacts: social.DefaultContacts(), Updates: social.DefaultUpdates(now)}
}

type fileFormat struct {
	Contacts []social.Contact `yaml:"contacts"`
	Updates  []updateEntry    `yaml:"updates"`
}

// updateEntry accepts either an absolute timestamp or an age such as "45m".
type updateEntry struct {
	ID            string            `yaml:"id"`
	ContactID     string            `yaml:"contact_id"`
	Type          social.UpdateType `yaml:"type"`
	Channel       social.Channel    `yaml:"channel"`
	Content       string            `yaml:"content"`
	Timestamp     string            `yaml:"timestamp"`
	Age           string            `yaml:"age"`
	ImageURL      string            `yaml:"image_url"`
	Summary       string            `yaml:"summary"`
	PriorityScore int               `yaml:"priority_score"`
	IsRead        bool              `yaml:"is_read"`
}

// Load reads and validates a fixture file.
func Load(path string, now time.Time) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("failed to read fixtures: %w", err)
	}
	return Parse(data, now)
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte, now time.Time) (Set, error) {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Set{}, fmt.Errorf("failed to parse fixtures: %w", err)
	}

	set := Set{Contacts: f.Contacts, Updates: make([]social.Update, 0, len(f.Updates))}
	for _, e := range f.Updates {
		ts, err := e.timestamp(now)
		if err != nil {
			return Set{}, err
		}
		set.Updates = append(set.Updates, social.Update{
			ID:            e.ID,
			ContactID:     e.ContactID,
			Type:          e.Type,
			Channel:       e.Channel,
			Content:       e.Content,
			Timestamp:     ts,
			ImageURL:      e.ImageURL,
			Summary:       e.Summary,
			PriorityScore: e.PriorityScore,
			IsRead:        e.IsRead,
		})
	}

	if err := set.Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}

func (e updateEntry) timestamp(now time.Time) (time.Time, error) {
	switch {
	case e.Timestamp != "":
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: update %s timestamp: %v", ErrInvalidField, e.ID, err)
		}
		return ts, nil
	case e.Age != "":
		age, err := time.ParseDuration(e.Age)
		if err != nil || age < 0 {
			return time.Time{}, fmt.Errorf("%w: update %s age %q", ErrInvalidField, e.ID, e.Age)
		}
		return now.Add(-age), nil
	}
	return now, nil
}

// Validate checks identity, references and enumerations.
func (s Set) Validate() error {
	contactIDs := make(map[string]struct{}, len(s.Contacts))
	for _, c := range s.Contacts {
		if c.ID == "" {
			return fmt.Errorf("%w: contact with empty id", ErrInvalidField)
		}
		if _, dup := contactIDs[c.ID]; dup {
			return fmt.Errorf("%w: contact %s", ErrDuplicateID, c.ID)
		}
		contactIDs[c.ID] = struct{}{}
		if !c.Circle.Valid() {
			return fmt.Errorf("%w: contact %s circle %q", ErrInvalidField, c.ID, c.Circle)
		}
		for _, ch := range c.Channels {
			if !ch.Valid() {
				return fmt.Errorf("%w: contact %s channel %q", ErrInvalidField, c.ID, ch)
			}
		}
	}

	updateIDs := make(map[string]struct{}, len(s.Updates))
	for _, u := range s.Updates {
		if u.ID == "" {
			return fmt.Errorf("%w: update with empty id", ErrInvalidField)
		}
		if _, dup := updateIDs[u.ID]; dup {
			return fmt.Errorf("%w: update %s", ErrDuplicateID, u.ID)
		}
		updateIDs[u.ID] = struct{}{}
		if _, ok := contactIDs[u.ContactID]; !ok {
			return fmt.Errorf("%w: update %s -> %s", ErrUnknownContact, u.ID, u.ContactID)
		}
		if !u.Type.Valid() {
			return fmt.Errorf("%w: update %s type %q", ErrInvalidField, u.ID, u.Type)
		}
		if !u.Channel.Valid() {
			return fmt.Errorf("%w: update %s channel %q", ErrInvalidField, u.ID, u.Channel)
		}
		if u.PriorityScore < 0 || u.PriorityScore > 100 {
			return fmt.Errorf("%w: update %s priority %d", ErrInvalidField, u.ID, u.PriorityScore)
		}
	}
	return nil
}
