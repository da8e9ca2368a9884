// Package generate holds the text-generation boundary: an external model
// turns free text into rows of per-field card content. The storage core
// never depends on this package; it only ever receives the structured
// records built here.
package generate

import (
	"errors"
	"strings"

	"cardvault/internal/model"
	"cardvault/internal/storage"
)

// Completer is the external text-generation collaborator. Given input text
// and a prompt it returns one row per card, each row holding the content
// for the card type's fields in order.
type Completer interface {
	Complete(input, prompt string) ([][]string, error)
}

// Disabled is the Completer used when no provider is configured.
type Disabled struct{}

func (Disabled) Complete(input, prompt string) ([][]string, error) {
	return nil, errors.New("card generation is not configured")
}

// Result is the persisted outcome of one generation call.
type Result struct {
	Cards         []*model.Card         `json:"cards"`
	FieldContents []*model.FieldContent `json:"fieldContents"`
}

// Service assembles and stores cards from completer output.
type Service struct {
	completer Completer
	stores    *storage.Stores
}

func NewService(completer Completer, stores *storage.Stores) *Service {
	return &Service{completer: completer, stores: stores}
}

// Cards runs the completer and persists one card per complete output row
// into the given deck. Rows missing content for any field of the card type
// are dropped; a provider failure or an all-dropped result means no cards.
func (s *Service) Cards(clientID, cardTypeID, deckID, input, prompt string) (*Result, error) {
	fields, err := s.stores.Fields.GetAllBy(clientID, "cardTypeId", cardTypeID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.New("card type has no fields")
	}

	rows, err := s.completer.Complete(flatten(input), prompt)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, row := range rows {
		if len(row) < len(fields) {
			continue
		}
		card := &model.Card{DeckID: deckID, CardTypeID: cardTypeID}
		card.SetRecordID(storage.NewID())
		complete := true
		var contents []*model.FieldContent
		for i, field := range fields {
			if row[i] == "" {
				complete = false
				break
			}
			fc := &model.FieldContent{CardID: card.ID, FieldID: field.ID, Content: row[i]}
			fc.SetRecordID(storage.NewID())
			contents = append(contents, fc)
		}
		if !complete {
			continue
		}
		res.Cards = append(res.Cards, card)
		res.FieldContents = append(res.FieldContents, contents...)
	}

	if len(res.Cards) == 0 {
		return nil, errors.New("no cards generated")
	}

	err = s.stores.InTx(func(tx *storage.Stores) error {
		if err := tx.Cards.AddAll(clientID, res.Cards); err != nil {
			return err
		}
		return tx.FieldContents.AddAll(clientID, res.FieldContents)
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// flatten collapses the input to a single line before it is handed to the
// provider.
func flatten(input string) string {
	return strings.ReplaceAll(input, "\n", " ")
}
