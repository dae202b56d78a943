// Package model defines the records exchanged with the news backend and the local session.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Role gates which views a session may enter. The zero value means "no role assigned yet".
type Role string

const (
	RoleNone      Role = ""
	RoleStudent   Role = "student"
	RolePublisher Role = "publisher"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// AllRoles lists every assignable role.
var AllRoles = []Role{RoleStudent, RolePublisher, RoleModerator, RoleAdmin}

// Valid reports whether r is one of the four assignable roles.
func (r Role) Valid() bool { return slices.Contains(AllRoles, r) }

// MarshalJSON encodes RoleNone as null, matching the backend.
func (r Role) MarshalJSON() ([]byte, error) {
	if r == RoleNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(r))
}

// UnmarshalJSON accepts a string or null.
func (r *Role) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*r = RoleNone
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	*r = Role(s)
	return nil
}

// Statut is the news lifecycle value.
type Statut string

const (
	StatutPending  Statut = "pending"
	StatutApproved Statut = "approved"
	StatutRejected Statut = "rejected"
)

// Importance ranks a news item.
type Importance string

const (
	ImportanceLow    Importance = "low"
	ImportanceMedium Importance = "medium"
	ImportanceHigh   Importance = "high"
	ImportanceUrgent Importance = "urgent"
)

// Frequency is a student's notification digest preference.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	return f == FrequencyImmediate || f == FrequencyDaily || f == FrequencyWeekly
}

// ProgrammeRef is a programme reference that the backend serializes either as
// a bare id or as an embedded object with an "id" field.
//
// Only the id is written back, so Nom does not survive a session save and
// load. Use User.ProgrammeNom for display.
type ProgrammeRef struct {
	ID  int64
	Nom string
}

// Set reports whether the reference points at a programme.
func (p ProgrammeRef) Set() bool { return p.ID != 0 }

// MarshalJSON encodes the reference as its id (or null).
func (p ProgrammeRef) MarshalJSON() ([]byte, error) {
	if p.ID == 0 {
		return []byte("null"), nil
	}
	return json.Marshal(p.ID)
}

// UnmarshalJSON accepts null, a number, a numeric string, or {"id":..}.
func (p *ProgrammeRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*p = ProgrammeRef{}
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '{':
		var obj struct {
			ID  int64  `json:"id"`
			Nom string `json:"nom"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return fmt.Errorf("programme: %w", err)
		}
		p.ID, p.Nom = obj.ID, obj.Nom
		return nil
	case b[0] == '"':
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("programme: %w", err)
		}
		id, err := n.Int64()
		if err != nil {
			return fmt.Errorf("programme: %w", err)
		}
		p.ID = id
		return nil
	default:
		return json.Unmarshal(b, &p.ID)
	}
}

// User is the backend user record as seen by the client.
type User struct {
	ID                    int64        `json:"id"`
	Username              string       `json:"username"`
	Email                 string       `json:"email"`
	FirstName             string       `json:"first_name,omitempty"`
	LastName              string       `json:"last_name,omitempty"`
	Role                  Role         `json:"role"`
	Programme             ProgrammeRef `json:"programme"`
	ProgrammeNom          string       `json:"programme_nom,omitempty"`
	NotificationFrequency Frequency    `json:"notification_frequency,omitempty"`
}

// Session is the locally persisted authentication state.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         User
}

// HasRole reports whether the cached role is one of roles.
func (s Session) HasRole(roles []Role) bool {
	return slices.Contains(roles, s.User.Role)
}

// TokenPair is the answer of the token endpoint.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Author is the embedded author of a news item.
type Author struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username"`
}

// Programme is an academic grouping that scopes which news a student sees.
type Programme struct {
	ID          int64  `json:"id,omitempty"`
	Nom         string `json:"nom" validate:"required"`
	Description string `json:"description,omitempty"`
}

// News is a single announcement.
type News struct {
	ID                       int64        `json:"id"`
	Titre                    string       `json:"titre"`
	Contenu                  string       `json:"contenu"`
	Importance               Importance   `json:"importance,omitempty"`
	Statut                   Statut       `json:"statut"`
	Programme                ProgrammeRef `json:"programme"`
	ProgrammeDetail          *Programme   `json:"programme_detail,omitempty"`
	Auteur                   *Author      `json:"auteur,omitempty"`
	AuteurNom                string       `json:"auteur_nom,omitempty"`
	ModereParNom             string       `json:"modere_par_nom,omitempty"`
	DateCreation             string       `json:"date_creation,omitempty"`
	DatePublication          string       `json:"date_publication,omitempty"`
	DateSouhaiteePublication string       `json:"date_souhaitee_publication,omitempty"`
}

// AuthorName returns the best available author label.
func (n News) AuthorName() string {
	if n.AuteurNom != "" {
		return n.AuteurNom
	}
	if n.Auteur != nil {
		return n.Auteur.Username
	}
	return ""
}

// Notification tells a user about a news item.
type Notification struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
	Lue     bool   `json:"lue"`
	News    int64  `json:"news"`
}

// NewsInput is the create/update payload for a news item.
type NewsInput struct {
	Titre                    string     `json:"titre" validate:"required"`
	Contenu                  string     `json:"contenu" validate:"required"`
	Importance               Importance `json:"importance" validate:"omitempty,oneof=low medium high urgent"`
	Programme                int64      `json:"programme" validate:"required,gt=0"`
	DateSouhaiteePublication *string    `json:"date_souhaitee_publication"`
	Statut                   Statut     `json:"statut,omitempty"`
}

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Username              string    `json:"username" validate:"required"`
	Email                 string    `json:"email" validate:"required,email"`
	FirstName             string    `json:"first_name"`
	LastName              string    `json:"last_name"`
	Password              string    `json:"password" validate:"required"`
	Programme             *int64    `json:"programme"`
	NotificationFrequency Frequency `json:"notification_frequency" validate:"required,oneof=immediate daily weekly"`
	FCMToken              string    `json:"fcm_token,omitempty"`
}

// UserUpdate is a partial user update; nil fields are left out of the PATCH.
type UserUpdate struct {
	Username              *string    `json:"username,omitempty" validate:"omitempty,min=1"`
	Email                 *string    `json:"email,omitempty" validate:"omitempty,email"`
	FirstName             *string    `json:"first_name,omitempty"`
	LastName              *string    `json:"last_name,omitempty"`
	Programme             *int64     `json:"programme,omitempty" validate:"omitempty,gt=0"`
	NotificationFrequency *Frequency `json:"notification_frequency,omitempty" validate:"omitempty,oneof=immediate daily weekly"`
}

// CheckRole is the waiting-room redirect answer.
type CheckRole struct {
	Redirect string `json:"redirect"`
}
