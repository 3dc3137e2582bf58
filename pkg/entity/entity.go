package entity

import (
	"fmt"
	"time"

	"github.com/jwebster45206/world-forge/pkg/chat"
)

// Kind identifies the flavor of generated entity. Each kind shares the
// five-stage generation pipeline but carries its own draft schema and
// default fields.
type Kind string

const (
	KindItem     Kind = "item"
	KindNPC      Kind = "npc"
	KindLocation Kind = "location"
)

func (k Kind) Valid() bool {
	switch k {
	case KindItem, KindNPC, KindLocation:
		return true
	}
	return false
}

// Rarity is the coarse significance tier of an entity. It shapes narrative
// and visual weight but has no mechanical meaning of its own.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// AttributeType is the value type of a generated attribute.
type AttributeType string

const (
	AttributeInteger AttributeType = "integer"
	AttributeNumber  AttributeType = "number"
	AttributeString  AttributeType = "string"
	AttributeBoolean AttributeType = "boolean"
	AttributeEnum    AttributeType = "enum"
	AttributeArray   AttributeType = "array"
)

// AttributeOrigin records whether an attribute's metadata came from the
// rules library or was inferred from the model response. Inferred entries
// need review before they are promoted into the library.
const (
	OriginKnown    = "known"
	OriginInferred = "inferred"
)

// AttributeRecord is one attribute on a generated entity, carrying its
// value together with the metadata it was reconciled against.
type AttributeRecord struct {
	Value       interface{}   `json:"value"`
	Type        AttributeType `json:"type"`
	Description string        `json:"description,omitempty"`
	Reference   string        `json:"reference,omitempty"`
	Values      []string      `json:"values,omitempty"` // enum values
	Category    string        `json:"category,omitempty"`
	Origin      string        `json:"origin,omitempty"` // "known" or "inferred"
}

// GeneratedEntity is the composed output of the generation pipeline.
type GeneratedEntity struct {
	ID            string                     `json:"id"`
	Kind          Kind                       `json:"kind"`
	Name          string                     `json:"name"`
	Rarity        Rarity                     `json:"rarity"`
	Description   string                     `json:"description"`
	Category      string                     `json:"category"`
	OwnAttributes map[string]AttributeRecord `json:"own_attributes,omitempty"`
	ImageURL      string                     `json:"image_url,omitempty"` // data URI
	X             int                        `json:"x"`
	Y             int                        `json:"y"`
	Region        string                     `json:"region,omitempty"`
	CreatedAt     time.Time                  `json:"created_at,omitempty"`

	// NPC-specific fields
	Purpose     string             `json:"purpose,omitempty"`
	ChatHistory []chat.ChatMessage `json:"chat_history,omitempty"`
}

// Draft is the base entity returned by the drafting stage, before an id
// has been allocated or attributes reconciled. The ID field holds the
// schema's placeholder value until allocation.
type Draft struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Rarity      Rarity `json:"rarity"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Purpose     string `json:"purpose,omitempty"`
}

func (d *Draft) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("draft name cannot be empty")
	}
	if !d.Rarity.Valid() {
		return fmt.Errorf("invalid rarity: %q", d.Rarity)
	}
	if d.Description == "" {
		return fmt.Errorf("draft description cannot be empty")
	}
	if d.Category == "" {
		return fmt.Errorf("draft category cannot be empty")
	}
	return nil
}
