// Package pipeline turns one utterance into executed inventory operations:
// extraction, slot filling, resolution, execution, and the spoken summary.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storagevoice/internal/dialogue"
	"storagevoice/internal/inventory"
	"storagevoice/internal/logger"
	"storagevoice/internal/speech"
	"storagevoice/pkg"
)

// Result is the outcome of executing one op. Either Message is final, or
// Suggestions is non-empty and the op needs a disambiguation pass.
type Result struct {
	Message     string
	Suggestions []pkg.Suggestion
	Pending     pkg.Op
}

// Executor runs single ops against the inventory. Failures of one op never
// abort the batch; they come back as spoken notices.
type Executor struct {
	svc   *inventory.Service
	voice speech.Voice
}

func NewExecutor(svc *inventory.Service, voice speech.Voice) *Executor {
	return &Executor{svc: svc, voice: voice}
}

// Execute runs one op. multiMode suppresses interactive disambiguation so
// a long batch never stalls on one ambiguous member.
func (e *Executor) Execute(ctx context.Context, op pkg.Op, multiMode bool) Result {
	switch op.Intent {
	case pkg.IntentAdd:
		return e.execAdd(ctx, op)
	case pkg.IntentRemove:
		return e.execRemove(ctx, op, multiMode)
	case pkg.IntentMove:
		return e.execMove(ctx, op, multiMode)
	case pkg.IntentFind:
		return e.execFind(ctx, op)
	case pkg.IntentClearBox:
		return e.execClearBox(ctx, op)
	case pkg.IntentAddBox:
		return e.execAddBox(ctx, op)
	case pkg.IntentRemoveBox:
		return e.execRemoveBox(ctx, op)
	}
	return Result{Message: "sorry, I did not understand that request"}
}

func opQuantity(op pkg.Op) int {
	n, err := strconv.Atoi(op.Quantity)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (e *Executor) execAdd(ctx context.Context, op pkg.Op) Result {
	qty := opQuantity(op)
	item, created, err := e.svc.AddItem(ctx, op.ObjectName, qty, op.ToBox)
	if errors.Is(err, inventory.ErrBoxNotFound) {
		// One chance to name a real box before giving up on this op.
		question := fmt.Sprintf("Which box should I add %s to?", op.ObjectName)
		if op.ToBox != "" {
			question = fmt.Sprintf("I do not know a box called %s. %s", strings.ToUpper(op.ToBox), question)
		}
		e.voice.Speak(ctx, question)
		reply, terr := e.voice.Transcribe(ctx)
		if terr == nil {
			if box, berr := dialogue.ResolveSpokenBoxName(ctx, e.svc, reply); berr == nil && box != nil {
				item, created, err = e.svc.AddItem(ctx, op.ObjectName, qty, box.Name)
			}
		}
	}
	if errors.Is(err, inventory.ErrBoxNotFound) {
		return Result{Message: fmt.Sprintf("sorry, I could not find a box for %s, so I skipped it", op.ObjectName)}
	}
	if err != nil {
		logger.Error().Err(err).Str("item", op.ObjectName).Msg("add failed")
		return Result{Message: fmt.Sprintf("adding %s failed", op.ObjectName)}
	}
	boxName, _ := e.svc.BoxNameByID(ctx, item.BoxID)
	if created {
		return Result{Message: fmt.Sprintf("added %d %s to box %s", qty, item.Name, boxName)}
	}
	return Result{Message: fmt.Sprintf("added %d %s; you now have %d in box %s", qty, item.Name, item.Quantity, boxName)}
}

// resolveTarget finds the store record an op refers to, honoring a prior
// disambiguation selection. The Result is only meaningful when item is nil.
func (e *Executor) resolveTarget(ctx context.Context, op pkg.Op, multiMode bool) (*pkg.Item, Result) {
	if op.ResolvedItem != nil {
		return op.ResolvedItem, Result{}
	}
	item, suggestions, err := e.svc.ResolveSemanticToStoreItem(ctx, op.ObjectName)
	if err != nil {
		logger.Error().Err(err).Str("item", op.ObjectName).Msg("resolution failed")
		return nil, Result{Message: fmt.Sprintf("looking up %s failed", op.ObjectName)}
	}
	if item != nil {
		return item, Result{}
	}
	if len(suggestions) == 0 {
		return nil, Result{Message: fmt.Sprintf("I could not find %s", op.ObjectName)}
	}
	if multiMode {
		names := make([]string, 0, len(suggestions))
		for _, sg := range suggestions {
			names = append(names, sg.Item.Name)
		}
		return nil, Result{Message: fmt.Sprintf("skipped %s; it was ambiguous between %s",
			op.ObjectName, strings.Join(names, ", "))}
	}
	return nil, Result{Suggestions: suggestions, Pending: op}
}

func (e *Executor) execRemove(ctx context.Context, op pkg.Op, multiMode bool) Result {
	item, res := e.resolveTarget(ctx, op, multiMode)
	if item == nil {
		return res
	}
	boxName, _ := e.svc.BoxNameByID(ctx, item.BoxID)
	if op.RemoveAll {
		qty, err := e.svc.RemoveItemAll(ctx, item)
		if err != nil {
			logger.Error().Err(err).Str("item", item.ID).Msg("remove failed")
			return Result{Message: fmt.Sprintf("removing %s failed", item.Name)}
		}
		return Result{Message: fmt.Sprintf("removed all %d %s from box %s", qty, item.Name, boxName)}
	}
	qty := opQuantity(op)
	if qty > item.Quantity {
		qty = item.Quantity
	}
	updated, err := e.svc.RemoveItem(ctx, item, qty)
	if err != nil {
		logger.Error().Err(err).Str("item", item.ID).Msg("remove failed")
		return Result{Message: fmt.Sprintf("removing %s failed", item.Name)}
	}
	if updated.Quantity <= 0 {
		return Result{Message: fmt.Sprintf("removed the last %s from box %s", item.Name, boxName)}
	}
	return Result{Message: fmt.Sprintf("removed %d %s; %d left in box %s", qty, item.Name, updated.Quantity, boxName)}
}

func (e *Executor) execMove(ctx context.Context, op pkg.Op, multiMode bool) Result {
	dest, err := e.svc.FindBoxByName(ctx, op.ToBox)
	if err != nil {
		logger.Error().Err(err).Str("box", op.ToBox).Msg("box lookup failed")
		return Result{Message: "box lookup failed"}
	}
	if dest == nil {
		return Result{Message: fmt.Sprintf("I do not know a box called %s", strings.ToUpper(op.ToBox))}
	}

	if op.Everything {
		src, err := e.svc.FindBoxByName(ctx, op.FromBox)
		if err != nil || src == nil {
			return Result{Message: fmt.Sprintf("I do not know a box called %s", strings.ToUpper(op.FromBox))}
		}
		moved, err := e.svc.MoveAllItemsBetweenBoxes(ctx, src, dest)
		if err != nil {
			logger.Error().Err(err).Msg("bulk move failed")
			return Result{Message: fmt.Sprintf("moving items from box %s failed", src.Name)}
		}
		return Result{Message: fmt.Sprintf("moved %d items from box %s to box %s", moved, src.Name, dest.Name)}
	}

	item, res := e.resolveTarget(ctx, op, multiMode)
	if item == nil {
		return res
	}
	updated, moved, err := e.svc.MoveItem(ctx, item, op.FromBox, dest)
	if err != nil {
		return Result{Message: err.Error()}
	}
	if !moved {
		return Result{Message: fmt.Sprintf("%s is already in box %s", updated.Name, dest.Name)}
	}
	return Result{Message: fmt.Sprintf("moved %s to box %s", updated.Name, dest.Name)}
}

func (e *Executor) execFind(ctx context.Context, op pkg.Op) Result {
	if op.Everything && op.ToBox != "" {
		box, err := e.svc.FindBoxByName(ctx, op.ToBox)
		if err != nil || box == nil {
			return Result{Message: fmt.Sprintf("I do not know a box called %s", strings.ToUpper(op.ToBox))}
		}
		items, err := e.svc.ListItemsInBox(ctx, box.ID)
		if err != nil {
			logger.Error().Err(err).Str("box", box.ID).Msg("box listing failed")
			return Result{Message: fmt.Sprintf("listing box %s failed", box.Name)}
		}
		if len(items) == 0 {
			return Result{Message: fmt.Sprintf("box %s is empty", box.Name)}
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			parts = append(parts, fmt.Sprintf("%d %s", it.Quantity, it.Name))
		}
		return Result{Message: fmt.Sprintf("box %s has %s", box.Name, strings.Join(parts, ", "))}
	}

	item, suggestions, err := e.svc.ResolveSemanticToStoreItem(ctx, op.ObjectName)
	if err != nil {
		logger.Error().Err(err).Str("item", op.ObjectName).Msg("lookup failed")
		return Result{Message: fmt.Sprintf("looking up %s failed", op.ObjectName)}
	}
	if item != nil {
		boxName, _ := e.svc.BoxNameByID(ctx, item.BoxID)
		msg := fmt.Sprintf("you have %d %s in box %s", item.Quantity, item.Name, boxName)
		if related := e.relatedItems(ctx, op.ObjectName, item.ID); len(related) > 0 {
			msg += fmt.Sprintf("; related: %s", strings.Join(related, ", "))
		}
		return Result{Message: msg}
	}
	// A lookup never turns into a dialogue; report the nearest names and stop.
	if len(suggestions) == 0 {
		return Result{Message: fmt.Sprintf("I could not find %s", op.ObjectName)}
	}
	names := make([]string, 0, len(suggestions))
	for i, sg := range suggestions {
		if i == 3 {
			break
		}
		boxName, _ := e.svc.BoxNameByID(ctx, sg.Item.BoxID)
		if boxName != "" {
			names = append(names, fmt.Sprintf("%s in box %s", sg.Item.Name, boxName))
		} else {
			names = append(names, sg.Item.Name)
		}
	}
	return Result{Message: fmt.Sprintf("no exact match for %s; closest are %s", op.ObjectName, strings.Join(names, ", "))}
}

func (e *Executor) relatedItems(ctx context.Context, query, excludeID string) []string {
	hits, err := e.svc.Search().FindAllAboveThreshold(ctx, query, 5, 0)
	if err != nil {
		return nil
	}
	var names []string
	for _, h := range hits {
		if h.Item.ID == excludeID {
			continue
		}
		names = append(names, h.Item.Name)
	}
	return names
}

func (e *Executor) execClearBox(ctx context.Context, op pkg.Op) Result {
	box, err := e.svc.FindBoxByName(ctx, op.ToBox)
	if err != nil || box == nil {
		return Result{Message: fmt.Sprintf("I do not know a box called %s", strings.ToUpper(op.ToBox))}
	}
	cleared, err := e.svc.ClearBoxItems(ctx, box)
	if err != nil {
		logger.Error().Err(err).Str("box", box.ID).Msg("clear failed")
		return Result{Message: fmt.Sprintf("clearing box %s failed", box.Name)}
	}
	if cleared == 0 {
		return Result{Message: fmt.Sprintf("box %s was already empty", box.Name)}
	}
	return Result{Message: fmt.Sprintf("cleared %d items from box %s", cleared, box.Name)}
}

func (e *Executor) execAddBox(ctx context.Context, op pkg.Op) Result {
	box, created, err := e.svc.AddBox(ctx, op.ToBox)
	if err != nil {
		logger.Error().Err(err).Str("box", op.ToBox).Msg("box creation failed")
		return Result{Message: fmt.Sprintf("creating box %s failed", strings.ToUpper(op.ToBox))}
	}
	if !created {
		return Result{Message: fmt.Sprintf("box %s already exists and is ready", box.Name)}
	}
	return Result{Message: fmt.Sprintf("box %s is ready", box.Name)}
}

func (e *Executor) execRemoveBox(ctx context.Context, op pkg.Op) Result {
	box, err := e.svc.FindBoxByName(ctx, op.ToBox)
	if err != nil || box == nil {
		return Result{Message: fmt.Sprintf("I do not know a box called %s", strings.ToUpper(op.ToBox))}
	}
	ok, count, err := e.svc.RemoveBoxIfEmpty(ctx, box)
	if err != nil {
		logger.Error().Err(err).Str("box", box.ID).Msg("box removal failed")
		return Result{Message: fmt.Sprintf("removing box %s failed", box.Name)}
	}
	if !ok {
		return Result{Message: fmt.Sprintf("box %s still has %d items; move or remove them first", box.Name, count)}
	}
	return Result{Message: fmt.Sprintf("removed box %s", box.Name)}
}
