package engine

import (
	"fmt"

	"github.com/MRamiBalles/UniverseRPG/server/internal/domain/card"
	"github.com/MRamiBalles/UniverseRPG/server/internal/events"
)

// AddCard grants copies of a card, creating it at tier 1 on first acquisition.
func (e *Engine) AddCard(cardID string, copies int) (card.Owned, error) {
	if _, ok := card.Get(cardID); !ok {
		return card.Owned{}, fmt.Errorf("%w: %s", ErrUnknownCard, cardID)
	}
	if copies <= 0 {
		return card.Owned{}, ErrInvalidAmount
	}
	e.mu.Lock()
	defer e.unlockAndFlush()
	owned := e.addCard(cardID, copies)
	e.requestSave()
	return owned, nil
}

func (e *Engine) addCard(cardID string, copies int) card.Owned {
	def, _ := card.Get(cardID)
	idx := -1
	for i, c := range e.state.Cards {
		if c.CardID == cardID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.state.Cards = append(e.state.Cards, card.Owned{ID: e.newID(), CardID: cardID, Tier: 1})
		idx = len(e.state.Cards) - 1
	}
	owned := &e.state.Cards[idx]
	fromTier := owned.Tier
	gained := owned.AddCopies(def, copies)

	e.emit(events.EventTypeCardAcquired, cardID, events.CardPayload{CardID: cardID, Copies: owned.Copies, Tier: owned.Tier})
	if gained > 0 {
		e.logger.Event("CARD_TIER_UP", e.state.PlayerName, fmt.Sprintf("%s tier %d -> %d", cardID, fromTier, owned.Tier))
		e.emit(events.EventTypeCardTierUp, cardID, events.CardPayload{CardID: cardID, Copies: owned.Copies, Tier: owned.Tier})
	}
	return *owned
}

// EquipCard places an owned card in a slot, replacing whatever was there.
func (e *Engine) EquipCard(cardID string, page card.Page, slot int) error {
	if slot < 0 || slot >= card.SlotsPerPage {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	e.mu.Lock()
	defer e.unlockAndFlush()

	arr, ok := e.state.Slots[page]
	if !ok {
		return fmt.Errorf("%w: page %s", ErrInvalidSlot, page)
	}
	if _, owned := e.state.Card(cardID); !owned {
		return fmt.Errorf("%w: %s", ErrCardNotOwned, cardID)
	}
	arr[slot] = cardID
	e.requestSave()
	return nil
}

// UnequipCard empties a slot. Emptying an already empty slot is not an error.
func (e *Engine) UnequipCard(page card.Page, slot int) error {
	if slot < 0 || slot >= card.SlotsPerPage {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	e.mu.Lock()
	defer e.unlockAndFlush()

	arr, ok := e.state.Slots[page]
	if !ok {
		return fmt.Errorf("%w: page %s", ErrInvalidSlot, page)
	}
	arr[slot] = ""
	e.requestSave()
	return nil
}
