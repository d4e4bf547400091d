package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Consent carries a ballot consent answer as submitted. Anything other than
// ConsentYes counts as not given.
type Consent string

const ConsentYes Consent = "yes"

func (c Consent) Given() bool { return c == ConsentYes }

// Answers holds the submitted ballot fields. Terms and Privacy must be
// affirmative for a vote to be accepted; the rest is optional.
type Answers struct {
	Terms      Consent `json:"terms"`
	Privacy    Consent `json:"privacy"`
	Newsletter Consent `json:"newsletter,omitempty"`
	Alias      string  `json:"alias,omitempty"`
	Comment    string  `json:"comment,omitempty"`
}

// NormalizeEmail lowercases and trims an identity email. Store keys and
// session identities always use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// VoteRecord is the single persisted entity, keyed by the verified email.
// A record is created at registration with only ID and Email set; Created is
// set exactly once when the vote is finalized and the record is immutable
// from then on.
type VoteRecord struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Nationality string     `json:"nationality,omitempty"`
	Answers     *Answers   `json:"answers,omitempty"`
	Created     *time.Time `json:"created,omitempty"`
	Index       int        `json:"index,omitempty"`
}

func (r *VoteRecord) Finalized() bool {
	return r != nil && r.Created != nil
}

// Clone returns a deep copy so cached or stored records cannot be mutated
// through shared pointers.
func (r *VoteRecord) Clone() *VoteRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.Answers != nil {
		a := *r.Answers
		c.Answers = &a
	}
	if r.Created != nil {
		t := *r.Created
		c.Created = &t
	}
	return &c
}

// PublicVote is the projection of a finalized record safe for public
// listings: no email, no ballot token, no consents, no comment.
type PublicVote struct {
	Alias       string    `json:"alias"`
	Nationality string    `json:"nationality"`
	Index       int       `json:"index"`
	Created     time.Time `json:"created"`
}

const anonymousAlias = "Anonymous"

// PublicProjection builds the public-safe view of a finalized record.
func (r *VoteRecord) PublicProjection() PublicVote {
	alias := anonymousAlias
	if r.Answers != nil && strings.TrimSpace(r.Answers.Alias) != "" {
		alias = strings.TrimSpace(r.Answers.Alias)
	}
	p := PublicVote{
		Alias:       alias,
		Nationality: r.Nationality,
		Index:       r.Index,
	}
	if r.Created != nil {
		p.Created = *r.Created
	}
	return p
}
