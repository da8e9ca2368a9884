package model

// Base carries the two columns every stored entity shares. The id is minted
// by the storage layer and the clientId is stamped from the authenticated
// tenant, never taken from caller input.
type Base struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId"`
}

func (b *Base) RecordID() string { return b.ID }

func (b *Base) ClientRef() string { return b.ClientID }

func (b *Base) SetRecordID(id string) { b.ID = id }

func (b *Base) SetClientID(clientID string) { b.ClientID = clientID }

// Record is the contract every persisted entity satisfies through Base.
type Record interface {
	RecordID() string
	ClientRef() string
	SetRecordID(id string)
	SetClientID(clientID string)
}

// Directory is a node of the per-tenant content tree. A nil ParentID marks a
// root directory. IsShared is a 0/1 flag, stored as a number.
type Directory struct {
	Base
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
	IsShared int64   `json:"isShared"`
}

// Deck groups cards under an optional parent directory.
type Deck struct {
	Base
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
	IsShared int64   `json:"isShared"`
}

// CardType names a card layout; its Fields and CardTypeVariants hang off it.
type CardType struct {
	Base
	Name string `json:"name"`
}

// Field is a named slot of a card type.
type Field struct {
	Base
	Name       string `json:"name"`
	CardTypeID string `json:"cardTypeId"`
}

// CardTypeVariant holds the front/back render templates of a card type.
type CardTypeVariant struct {
	Base
	Name          string `json:"name"`
	CardTypeID    string `json:"cardTypeId"`
	TemplateFront string `json:"templateFront"`
	TemplateBack  string `json:"templateBack"`
}

// Card is a single reviewable item. DueAt and LearningState belong to the
// client-side scheduler; the server only stores them. Paused is a 0/1 flag.
type Card struct {
	Base
	DeckID        string `json:"deckId"`
	CardTypeID    string `json:"cardTypeId"`
	DueAt         int64  `json:"dueAt"`
	LearningState int64  `json:"learningState"`
	Paused        int64  `json:"paused"`
}

// FieldContent is the text a card holds for one field of its card type.
type FieldContent struct {
	Base
	CardID  string `json:"cardId"`
	FieldID string `json:"fieldId"`
	Content string `json:"content"`
}

// SharedItem publishes a deck or directory for other tenants to clone.
// SharedItemID points at the published deck or directory row; it is not a
// schema-level foreign key.
type SharedItem struct {
	Base
	SharedItemID   string `json:"sharedItemId"`
	SharedItemName string `json:"sharedItemName"`
	Downloads      int64  `json:"downloads"`
}

// Snapshot is the export aggregate of a shared subtree: seven ordered lists
// covering every table the clone pipeline touches. Directories are ordered
// parent-first so the lists can be committed as-is.
type Snapshot struct {
	Directories      []*Directory       `json:"directories"`
	Decks            []*Deck            `json:"decks"`
	Cards            []*Card            `json:"cards"`
	CardTypes        []*CardType        `json:"cardTypes"`
	Fields           []*Field           `json:"fields"`
	FieldContents    []*FieldContent    `json:"fieldContents"`
	CardTypeVariants []*CardTypeVariant `json:"cardTypeVariants"`
}

// Client is the tenant identity resolved by the authentication boundary.
type Client struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
}
