package lesson

import "github.com/pavelanni/lessonhub/internal/model"

// Card is a flashcard over one vocabulary pair. It shows the French side
// until revealed, then the English side.
type Card struct {
	pair     model.VocabPair
	revealed bool
}

// NewCard creates a card showing its French side.
func NewCard(p model.VocabPair) *Card {
	return &Card{pair: p}
}

// Toggle flips the card.
func (c *Card) Toggle() {
	c.revealed = !c.revealed
}

// Revealed reports whether the English side is showing.
func (c *Card) Revealed() bool { return c.revealed }

// Pair returns the vocabulary pair behind the card.
func (c *Card) Pair() model.VocabPair { return c.pair }

// Language returns the language currently showing.
func (c *Card) Language() model.Lang {
	if c.revealed {
		return model.LangEnglish
	}
	return model.LangFrench
}

// Face returns the text currently showing.
func (c *Card) Face() string {
	if c.revealed {
		return c.pair.EN
	}
	return c.pair.FR
}

// Deck is the set of flashcards for one lesson. Every card flips on its own.
type Deck struct {
	cards []*Card
}

// NewDeck builds one card per vocabulary pair.
func NewDeck(vocab []model.VocabPair) *Deck {
	d := &Deck{cards: make([]*Card, len(vocab))}
	for i, p := range vocab {
		d.cards[i] = NewCard(p)
	}
	return d
}

// Toggle flips card i. It returns false and does nothing when i is out of range.
func (d *Deck) Toggle(i int) bool {
	if i < 0 || i >= len(d.cards) {
		return false
	}
	d.cards[i].Toggle()
	return true
}

// Card returns card i, or nil when i is out of range.
func (d *Deck) Card(i int) *Card {
	if i < 0 || i >= len(d.cards) {
		return nil
	}
	return d.cards[i]
}

// Cards returns the cards in vocabulary order.
func (d *Deck) Cards() []*Card { return d.cards }

// Len returns the number of cards.
func (d *Deck) Len() int { return len(d.cards) }
