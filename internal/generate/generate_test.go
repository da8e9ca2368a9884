package generate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardvault/internal/model"
	"cardvault/internal/storage"
)

const testClient = "client-a-0000000000000000"

type fakeCompleter struct {
	rows  [][]string
	err   error
	input string
}

func (f *fakeCompleter) Complete(input, prompt string) ([][]string, error) {
	f.input = input
	return f.rows, f.err
}

func setup(t *testing.T, completer Completer) (*Service, *storage.Stores, *model.CardType, *model.Deck) {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	stores := storage.NewStores(db)

	ct := &model.CardType{Name: "Basic"}
	ct.SetRecordID(storage.NewID())
	require.NoError(t, stores.CardTypes.Add(testClient, ct))
	for _, name := range []string{"Front", "Back"} {
		field := &model.Field{Name: name, CardTypeID: ct.ID}
		field.SetRecordID(storage.NewID())
		require.NoError(t, stores.Fields.Add(testClient, field))
	}

	deck := &model.Deck{Name: "Generated"}
	deck.SetRecordID(storage.NewID())
	require.NoError(t, stores.Decks.Add(testClient, deck))

	return NewService(completer, stores), stores, ct, deck
}

func TestCardsPersistsCompleteRows(t *testing.T) {
	completer := &fakeCompleter{rows: [][]string{
		{"hello", "hallo"},
		{"incomplete", ""},
		{"short"},
		{"cat", "Katze"},
	}}
	svc, stores, ct, deck := setup(t, completer)

	res, err := svc.Cards(testClient, ct.ID, deck.ID, "line one\nline two", "make cards")
	require.NoError(t, err)

	assert.Len(t, res.Cards, 2, "rows with missing content are dropped")
	assert.Len(t, res.FieldContents, 4)
	assert.Equal(t, "line one line two", completer.input, "input is flattened to one line")

	cards, err := stores.Cards.GetAll(testClient)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	for _, card := range cards {
		assert.Equal(t, deck.ID, card.DeckID)
		assert.Equal(t, ct.ID, card.CardTypeID)
	}

	contents, err := stores.FieldContents.GetAll(testClient)
	require.NoError(t, err)
	assert.Len(t, contents, 4)
}

func TestCardsProviderFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("provider down")}
	svc, stores, ct, deck := setup(t, completer)

	_, err := svc.Cards(testClient, ct.ID, deck.ID, "input", "prompt")
	require.Error(t, err)

	size, err := stores.Cards.GetSize(testClient)
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestCardsAllRowsDropped(t *testing.T) {
	completer := &fakeCompleter{rows: [][]string{{"", ""}}}
	svc, _, ct, deck := setup(t, completer)

	_, err := svc.Cards(testClient, ct.ID, deck.ID, "input", "prompt")
	require.Error(t, err)
}

func TestCardsUnknownCardType(t *testing.T) {
	completer := &fakeCompleter{rows: [][]string{{"a", "b"}}}
	svc, _, _, deck := setup(t, completer)

	_, err := svc.Cards(testClient, storage.NewID(), deck.ID, "input", "prompt")
	require.Error(t, err, "a card type without fields cannot produce cards")
}

func TestDisabledCompleter(t *testing.T) {
	svc, _, ct, deck := setup(t, Disabled{})

	_, err := svc.Cards(testClient, ct.ID, deck.ID, "input", "prompt")
	require.Error(t, err)
}
