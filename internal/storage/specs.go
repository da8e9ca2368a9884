package storage

import (
	"database/sql"
	"math"

	"cardvault/internal/model"
)

// Per-tenant row quotas.
const (
	MaxDirectories      = 1000
	MaxDecks            = 1000
	MaxCardTypes        = 500
	MaxFields           = 3000
	MaxCardTypeVariants = 3000
	MaxCards            = 20000
	MaxFieldContents    = 120000
	MaxSharedItems      = 500
)

const (
	maxNameLength     = 100
	maxContentLength  = 5000
	maxTemplateLength = 10000
	maxCounter        = math.MaxInt64
)

func directoryTable() Table {
	return NewTable("directories", MaxDirectories,
		Column{Name: "name", Type: TypeString, Limit: maxNameLength},
		Column{Name: "parentId", Type: TypeString, Limit: IDLength, Nullable: true, References: "directories"},
		Column{Name: "isShared", Type: TypeNumber, Limit: 1},
	)
}

func deckTable() Table {
	return NewTable("decks", MaxDecks,
		Column{Name: "name", Type: TypeString, Limit: maxNameLength},
		Column{Name: "parentId", Type: TypeString, Limit: IDLength, Nullable: true, References: "directories"},
		Column{Name: "isShared", Type: TypeNumber, Limit: 1},
	)
}

func cardTypeTable() Table {
	return NewTable("cardTypes", MaxCardTypes,
		Column{Name: "name", Type: TypeString, Limit: maxNameLength},
	)
}

func fieldTable() Table {
	return NewTable("fields", MaxFields,
		Column{Name: "name", Type: TypeString, Limit: maxNameLength},
		Column{Name: "cardTypeId", Type: TypeString, Limit: IDLength, References: "cardTypes"},
	)
}

func cardTable() Table {
	return NewTable("cards", MaxCards,
		Column{Name: "deckId", Type: TypeString, Limit: IDLength, References: "decks"},
		Column{Name: "cardTypeId", Type: TypeString, Limit: IDLength, References: "cardTypes"},
		Column{Name: "dueAt", Type: TypeNumber, Limit: maxCounter},
		Column{Name: "learningState", Type: TypeNumber, Limit: maxCounter},
		Column{Name: "paused", Type: TypeNumber, Limit: 1},
	)
}

func fieldContentTable() Table {
	return NewTable("fieldContents", MaxFieldContents,
		Column{Name: "cardId", Type: TypeString, Limit: IDLength, References: "cards"},
		Column{Name: "fieldId", Type: TypeString, Limit: IDLength, References: "fields"},
		Column{Name: "content", Type: TypeString, Limit: maxContentLength},
	)
}

func cardTypeVariantTable() Table {
	return NewTable("cardTypeVariants", MaxCardTypeVariants,
		Column{Name: "name", Type: TypeString, Limit: maxNameLength},
		Column{Name: "cardTypeId", Type: TypeString, Limit: IDLength, References: "cardTypes"},
		Column{Name: "templateFront", Type: TypeString, Limit: maxTemplateLength},
		Column{Name: "templateBack", Type: TypeString, Limit: maxTemplateLength},
	)
}

func sharedItemTable() Table {
	return NewTable("sharedItems", MaxSharedItems,
		Column{Name: "sharedItemId", Type: TypeString, Limit: IDLength},
		Column{Name: "sharedItemName", Type: TypeString, Limit: maxNameLength},
		Column{Name: "downloads", Type: TypeNumber, Limit: maxCounter},
	)
}

// Tables returns every descriptor in dependency order: referenced tables
// first, so provisioning and bulk inserts can follow the slice as-is.
func Tables() []Table {
	return []Table{
		directoryTable(),
		deckTable(),
		cardTypeTable(),
		fieldTable(),
		cardTable(),
		fieldContentTable(),
		cardTypeVariantTable(),
		sharedItemTable(),
	}
}

func DirectorySpec() Spec[*model.Directory] {
	return Spec[*model.Directory]{
		Table:  directoryTable(),
		Values: func(d *model.Directory) []any { return []any{d.Name, d.ParentID, d.IsShared} },
		Scan: func(r Scanner) (*model.Directory, error) {
			var d model.Directory
			var parent sql.NullString
			if err := r.Scan(&d.ID, &d.ClientID, &d.Name, &parent, &d.IsShared); err != nil {
				return nil, err
			}
			if parent.Valid {
				d.ParentID = &parent.String
			}
			return &d, nil
		},
	}
}

func DeckSpec() Spec[*model.Deck] {
	return Spec[*model.Deck]{
		Table:  deckTable(),
		Values: func(d *model.Deck) []any { return []any{d.Name, d.ParentID, d.IsShared} },
		Scan: func(r Scanner) (*model.Deck, error) {
			var d model.Deck
			var parent sql.NullString
			if err := r.Scan(&d.ID, &d.ClientID, &d.Name, &parent, &d.IsShared); err != nil {
				return nil, err
			}
			if parent.Valid {
				d.ParentID = &parent.String
			}
			return &d, nil
		},
	}
}

func CardTypeSpec() Spec[*model.CardType] {
	return Spec[*model.CardType]{
		Table:  cardTypeTable(),
		Values: func(ct *model.CardType) []any { return []any{ct.Name} },
		Scan: func(r Scanner) (*model.CardType, error) {
			var ct model.CardType
			if err := r.Scan(&ct.ID, &ct.ClientID, &ct.Name); err != nil {
				return nil, err
			}
			return &ct, nil
		},
	}
}

func FieldSpec() Spec[*model.Field] {
	return Spec[*model.Field]{
		Table:  fieldTable(),
		Values: func(f *model.Field) []any { return []any{f.Name, f.CardTypeID} },
		Scan: func(r Scanner) (*model.Field, error) {
			var f model.Field
			if err := r.Scan(&f.ID, &f.ClientID, &f.Name, &f.CardTypeID); err != nil {
				return nil, err
			}
			return &f, nil
		},
	}
}

func CardSpec() Spec[*model.Card] {
	return Spec[*model.Card]{
		Table: cardTable(),
		Values: func(c *model.Card) []any {
			return []any{c.DeckID, c.CardTypeID, c.DueAt, c.LearningState, c.Paused}
		},
		Scan: func(r Scanner) (*model.Card, error) {
			var c model.Card
			if err := r.Scan(&c.ID, &c.ClientID, &c.DeckID, &c.CardTypeID, &c.DueAt, &c.LearningState, &c.Paused); err != nil {
				return nil, err
			}
			return &c, nil
		},
	}
}

func FieldContentSpec() Spec[*model.FieldContent] {
	return Spec[*model.FieldContent]{
		Table:  fieldContentTable(),
		Values: func(fc *model.FieldContent) []any { return []any{fc.CardID, fc.FieldID, fc.Content} },
		Scan: func(r Scanner) (*model.FieldContent, error) {
			var fc model.FieldContent
			if err := r.Scan(&fc.ID, &fc.ClientID, &fc.CardID, &fc.FieldID, &fc.Content); err != nil {
				return nil, err
			}
			return &fc, nil
		},
	}
}

func CardTypeVariantSpec() Spec[*model.CardTypeVariant] {
	return Spec[*model.CardTypeVariant]{
		Table: cardTypeVariantTable(),
		Values: func(v *model.CardTypeVariant) []any {
			return []any{v.Name, v.CardTypeID, v.TemplateFront, v.TemplateBack}
		},
		Scan: func(r Scanner) (*model.CardTypeVariant, error) {
			var v model.CardTypeVariant
			if err := r.Scan(&v.ID, &v.ClientID, &v.Name, &v.CardTypeID, &v.TemplateFront, &v.TemplateBack); err != nil {
				return nil, err
			}
			return &v, nil
		},
	}
}

func SharedItemSpec() Spec[*model.SharedItem] {
	return Spec[*model.SharedItem]{
		Table: sharedItemTable(),
		Values: func(si *model.SharedItem) []any {
			return []any{si.SharedItemID, si.SharedItemName, si.Downloads}
		},
		Scan: func(r Scanner) (*model.SharedItem, error) {
			var si model.SharedItem
			if err := r.Scan(&si.ID, &si.ClientID, &si.SharedItemID, &si.SharedItemName, &si.Downloads); err != nil {
				return nil, err
			}
			return &si, nil
		},
	}
}
