package storage

import (
	"fmt"

	"cardvault/internal/model"
)

// DefaultCardTypePrefixes marks the ids of built-in card types. A cloned
// default card type is renamed with a tenant suffix so copies from several
// tenants stay distinguishable.
var DefaultCardTypePrefixes = []string{"dct1"}

// SharedItemStore extends the generic sharedItems store with the shared
// catalog reads, the export snapshot and the clone/transfer pipeline. All
// collaborating stores are injected.
type SharedItemStore struct {
	*Store[*model.SharedItem]

	db        *DB
	stores    *Stores
	hierarchy *Hierarchy
}

func NewSharedItemStore(db *DB, stores *Stores, hierarchy *Hierarchy) *SharedItemStore {
	return &SharedItemStore{
		Store:     stores.SharedItems,
		db:        db,
		stores:    stores,
		hierarchy: hierarchy,
	}
}

// All returns the whole shared catalog. Shared items are readable across
// tenants, so this read is deliberately un-scoped.
func (s *SharedItemStore) All() ([]*model.SharedItem, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", s.selectList(), s.spec.Name)
	return s.queryMany(query)
}

// ByRowID resolves a shared item by its own row id, regardless of tenant.
func (s *SharedItemStore) ByRowID(id string) (*model.SharedItem, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", s.selectList(), s.spec.Name)
	items, err := s.queryMany(query, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, notFoundErr(s.spec.Name, "no shared item with id %s", id)
	}
	return items[0], nil
}

// Publish adds a shared item for the tenant after checking that the
// published id resolves to a deck or directory the tenant owns.
func (s *SharedItemStore) Publish(clientID string, item *model.SharedItem) error {
	isDeck, err := s.stores.Decks.Has(clientID, item.SharedItemID)
	if err != nil {
		return err
	}
	if !isDeck {
		isDir, err := s.stores.Directories.Has(clientID, item.SharedItemID)
		if err != nil {
			return err
		}
		if !isDir {
			return validationErr(s.spec.Name, "sharedItemId %s is not a deck or directory of the client", item.SharedItemID)
		}
	}
	if item.ID == "" {
		item.SetRecordID(NewID())
	}
	return s.Add(clientID, item)
}

// DeleteBySharedItemID removes the tenant's catalog rows pointing at the
// given deck or directory id. Deleting an id nothing points at is a no-op.
func (s *SharedItemStore) DeleteBySharedItemID(clientID, sharedItemID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE clientId = ? AND sharedItemId = ?", s.spec.Name)
	if _, err := s.db.conn.Exec(query, clientID, sharedItemID); err != nil {
		return storageErr(s.spec.Name, "delete by sharedItemId", err)
	}
	return nil
}

// Download builds the export snapshot of a shared item: the published deck,
// or the published directory with its whole subtree, plus every card,
// field content, and the deduplicated card types with their fields and
// variants. Any lookup failure aborts the walk.
func (s *SharedItemStore) Download(sharedItemID string) (*model.Snapshot, error) {
	item, err := s.ByRowID(sharedItemID)
	if err != nil {
		return nil, err
	}
	owner := item.ClientID

	snap := &model.Snapshot{}
	seenTypes := make(map[string]bool)

	isDeck, err := s.stores.Decks.Has(owner, item.SharedItemID)
	if err != nil {
		return nil, err
	}

	if !isDeck {
		root, ok, err := s.stores.Directories.GetByID(owner, item.SharedItemID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, notFoundErr("directories", "shared directory %s not found", item.SharedItemID)
		}
		subDirs, err := s.hierarchy.SubDirectories(owner, root.ID)
		if err != nil {
			return nil, err
		}
		// Root first keeps the list parent-before-child.
		snap.Directories = append([]*model.Directory{root}, subDirs...)

		decks, err := s.hierarchy.SubDecks(owner, root.ID)
		if err != nil {
			return nil, err
		}
		for _, deck := range decks {
			if err := s.collectDeck(owner, deck, snap, seenTypes); err != nil {
				return nil, err
			}
		}
		return snap, nil
	}

	deck, ok, err := s.stores.Decks.GetByID(owner, item.SharedItemID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFoundErr("decks", "shared deck %s not found", item.SharedItemID)
	}
	if err := s.collectDeck(owner, deck, snap, seenTypes); err != nil {
		return nil, err
	}
	return snap, nil
}

// collectDeck appends one deck with its cards, field contents and any not
// yet seen card types (plus their fields and variants) to the snapshot.
func (s *SharedItemStore) collectDeck(owner string, deck *model.Deck, snap *model.Snapshot, seenTypes map[string]bool) error {
	snap.Decks = append(snap.Decks, deck)

	cards, err := s.stores.Cards.GetAllBy(owner, "deckId", deck.ID)
	if err != nil {
		return err
	}
	snap.Cards = append(snap.Cards, cards...)

	for _, card := range cards {
		contents, err := s.stores.FieldContents.GetAllBy(owner, "cardId", card.ID)
		if err != nil {
			return err
		}
		snap.FieldContents = append(snap.FieldContents, contents...)

		if seenTypes[card.CardTypeID] {
			continue
		}
		cardType, ok, err := s.stores.CardTypes.GetByID(owner, card.CardTypeID)
		if err != nil {
			return err
		}
		if !ok {
			return notFoundErr("cardTypes", "card type %s of card %s not found", card.CardTypeID, card.ID)
		}
		seenTypes[cardType.ID] = true
		snap.CardTypes = append(snap.CardTypes, cardType)

		fields, err := s.stores.Fields.GetAllBy(owner, "cardTypeId", cardType.ID)
		if err != nil {
			return err
		}
		snap.Fields = append(snap.Fields, fields...)

		variants, err := s.stores.CardTypeVariants.GetAllBy(owner, "cardTypeId", cardType.ID)
		if err != nil {
			return err
		}
		snap.CardTypeVariants = append(snap.CardTypeVariants, variants...)
	}
	return nil
}

// Transfer clones a shared item's subtree into the calling tenant's
// namespace under fresh identities and bumps the download counter. The
// whole commit runs in one transaction: a failure anywhere leaves no
// partial clone behind.
func (s *SharedItemStore) Transfer(clientID, sharedItemID string) error {
	snap, err := s.Download(sharedItemID)
	if err != nil {
		return err
	}
	item, err := s.ByRowID(sharedItemID)
	if err != nil {
		return err
	}

	clone := remapSnapshot(snap, clientID)

	return s.stores.InTx(func(ts *Stores) error {
		if err := ts.Directories.AddAll(clientID, clone.Directories); err != nil {
			return err
		}
		if err := ts.Decks.AddAll(clientID, clone.Decks); err != nil {
			return err
		}
		if err := ts.CardTypes.AddAll(clientID, clone.CardTypes); err != nil {
			return err
		}
		if err := ts.Fields.AddAll(clientID, clone.Fields); err != nil {
			return err
		}
		if err := ts.Cards.AddAll(clientID, clone.Cards); err != nil {
			return err
		}
		if err := ts.FieldContents.AddAll(clientID, clone.FieldContents); err != nil {
			return err
		}
		if err := ts.CardTypeVariants.AddAll(clientID, clone.CardTypeVariants); err != nil {
			return err
		}

		bumped := *item
		bumped.Downloads++
		return ts.SharedItems.Update(item.ClientID, &bumped)
	})
}

// remapSnapshot rebuilds snap with fresh ids for the importing tenant.
// Every foreign key is remapped into the clone; parent pointers leaving the
// snapshot become nil. Scheduling state is reset and shared flags cleared.
func remapSnapshot(snap *model.Snapshot, clientID string) *model.Snapshot {
	out := &model.Snapshot{}

	dirIDs := make(map[string]string, len(snap.Directories))
	for _, dir := range snap.Directories {
		dirIDs[dir.ID] = NewID()
	}
	for _, dir := range snap.Directories {
		c := *dir
		c.ID = dirIDs[dir.ID]
		c.ClientID = ""
		c.ParentID = remapParent(dir.ParentID, dirIDs)
		c.IsShared = 0
		out.Directories = append(out.Directories, &c)
	}

	deckIDs := make(map[string]string, len(snap.Decks))
	for _, deck := range snap.Decks {
		deckIDs[deck.ID] = NewID()
	}
	for _, deck := range snap.Decks {
		c := *deck
		c.ID = deckIDs[deck.ID]
		c.ClientID = ""
		c.ParentID = remapParent(deck.ParentID, dirIDs)
		c.IsShared = 0
		out.Decks = append(out.Decks, &c)
	}

	typeIDs := make(map[string]string, len(snap.CardTypes))
	for _, ct := range snap.CardTypes {
		typeIDs[ct.ID] = NewID()
	}
	for _, ct := range snap.CardTypes {
		c := *ct
		c.Name = defaultTypeName(ct, clientID)
		c.ID = typeIDs[ct.ID]
		c.ClientID = ""
		out.CardTypes = append(out.CardTypes, &c)
	}

	fieldIDs := make(map[string]string, len(snap.Fields))
	for _, f := range snap.Fields {
		fieldIDs[f.ID] = NewID()
	}
	for _, f := range snap.Fields {
		c := *f
		c.ID = fieldIDs[f.ID]
		c.ClientID = ""
		c.CardTypeID = typeIDs[f.CardTypeID]
		out.Fields = append(out.Fields, &c)
	}

	cardIDs := make(map[string]string, len(snap.Cards))
	for _, card := range snap.Cards {
		cardIDs[card.ID] = NewID()
	}
	for _, card := range snap.Cards {
		c := *card
		c.ID = cardIDs[card.ID]
		c.ClientID = ""
		c.DeckID = deckIDs[card.DeckID]
		c.CardTypeID = typeIDs[card.CardTypeID]
		c.DueAt = 0
		c.Paused = 0
		out.Cards = append(out.Cards, &c)
	}

	for _, fc := range snap.FieldContents {
		c := *fc
		c.ID = NewID()
		c.ClientID = ""
		c.CardID = cardIDs[fc.CardID]
		c.FieldID = fieldIDs[fc.FieldID]
		out.FieldContents = append(out.FieldContents, &c)
	}

	for _, v := range snap.CardTypeVariants {
		c := *v
		c.ID = NewID()
		c.ClientID = ""
		c.CardTypeID = typeIDs[v.CardTypeID]
		out.CardTypeVariants = append(out.CardTypeVariants, &c)
	}

	return out
}

// remapParent maps a parent pointer into the cloned id space; pointers at
// rows outside the snapshot (the root's own parent) become nil.
func remapParent(parentID *string, dirIDs map[string]string) *string {
	if parentID == nil {
		return nil
	}
	if mapped, ok := dirIDs[*parentID]; ok {
		return &mapped
	}
	return nil
}

// defaultTypeName suffixes a cloned default card type's name with the first
// characters of the importing tenant id.
func defaultTypeName(ct *model.CardType, clientID string) string {
	for _, prefix := range DefaultCardTypePrefixes {
		if len(ct.ID) >= len(prefix) && ct.ID[:len(prefix)] == prefix {
			suffix := clientID
			if len(suffix) > 8 {
				suffix = suffix[:8]
			}
			return fmt.Sprintf("%s (%s)", ct.Name, suffix)
		}
	}
	return ct.Name
}
