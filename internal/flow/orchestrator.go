// Package flow ties model generation, intent routing, and side-effect
// dispatch together into the gateway's chat operations.
package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/baseer-ai/baseer/internal/dialogue"
	"github.com/baseer-ai/baseer/internal/intent"
	"github.com/baseer-ai/baseer/internal/messaging"
	"github.com/baseer-ai/baseer/internal/models"
	"github.com/baseer-ai/baseer/internal/store"
)

// MessageSentConfirmation is returned to the user after a WhatsApp intent
// send succeeds.
const MessageSentConfirmation = "تم ارسال الرسالة"

// EmergencySentConfirmation is returned after an emergency alert is delivered.
const EmergencySentConfirmation = "تم ارسال الي الطوارئ"

// ModelClient is the slice of the GenAI client the orchestrator uses.
type ModelClient interface {
	Generate(ctx context.Context, seed []models.DialogueTurn, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, imageB64, prompt string) (string, error)
}

// Orchestrator routes one user turn through generation, intent
// classification, and the side-effect action the intent calls for.
//
// Classification itself stays pure (see the intent package); the
// orchestrator owns the second phase of the contract, conditionally
// executing at most one side-effecting action per turn.
type Orchestrator struct {
	model    ModelClient
	st       store.Store
	sender   messaging.Sender
	seed     *dialogue.Seed
	contacts *ContactCache
}

// NewOrchestrator wires the orchestrator's collaborators. The seed dialogue
// is shared by reference and must never be mutated.
func NewOrchestrator(model ModelClient, st store.Store, sender messaging.Sender, seed *dialogue.Seed, contacts *ContactCache) *Orchestrator {
	if seed == nil {
		seed = dialogue.EmptySeed()
	}
	return &Orchestrator{model: model, st: st, sender: sender, seed: seed, contacts: contacts}
}

// HandleChat runs the primary chat path: generate a reply, classify it, and
// dispatch on the detected intent.
func (o *Orchestrator) HandleChat(ctx context.Context, userID int64, prompt string) (*models.ChatResult, error) {
	if prompt == "" {
		return nil, models.ErrInvalidInput
	}

	reply, err := o.model.Generate(ctx, o.seed.Turns(), prompt)
	if err != nil {
		return nil, fmt.Errorf("model generation failed: %w", err)
	}
	o.appendHistory(ctx, userID, prompt, reply)

	detected, cleaned := intent.Classify(reply)
	if detected == models.IntentNone {
		return &models.ChatResult{Message: reply}, nil
	}
	msg := intent.Normalize(cleaned)

	switch detected {
	case models.IntentPhone:
		contacts, err := o.contacts.Contacts(ctx)
		if err != nil {
			return nil, fmt.Errorf("contact lookup failed: %w", err)
		}
		// Absent phone is a valid terminal outcome here: the user still
		// gets a best-effort message.
		phone, msg := intent.ResolvePhone(contacts, msg)
		return &models.ChatResult{Intent: detected, Message: msg, Phone: phone, RawReply: reply}, nil

	case models.IntentWhatsApp:
		user, err := o.st.GetUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("sender profile lookup failed: %w", err)
		}
		contacts, err := o.contacts.Contacts(ctx)
		if err != nil {
			return nil, fmt.Errorf("contact lookup failed: %w", err)
		}
		phone, msg := intent.ResolvePhone(contacts, msg)
		// Unlike PHONE, a send with no destination is meaningless, so an
		// unresolved contact fails the whole operation.
		if phone == "" {
			return nil, models.ErrNoRecipient
		}
		// Detached context: an in-flight send runs to completion even if
		// the client disconnects, avoiding torn sends.
		delivery, err := o.sender.Send(context.WithoutCancel(ctx), user.Fullname, phone, msg)
		if err != nil {
			return nil, fmt.Errorf("notification send failed: %w", err)
		}
		return &models.ChatResult{Intent: detected, Message: MessageSentConfirmation, Delivery: delivery}, nil

	default:
		return &models.ChatResult{Intent: detected, Message: msg, RawReply: reply}, nil
	}
}

// HandleImage runs one combined image-plus-prompt generation. Image replies
// are not classified for intents.
func (o *Orchestrator) HandleImage(ctx context.Context, userID int64, imageB64, prompt string) (string, error) {
	if imageB64 == "" {
		return "", models.ErrInvalidInput
	}
	reply, err := o.model.GenerateWithImage(ctx, imageB64, prompt)
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	o.appendHistory(ctx, userID, prompt, reply)
	return reply, nil
}

// HandleEmergency alerts the user's own emergency contact, taken from their
// profile rather than the shared directory. It always fires exactly one
// notification and bypasses intent routing entirely.
func (o *Orchestrator) HandleEmergency(ctx context.Context, userID int64, message string) (*models.DeliveryResult, error) {
	user, err := o.st.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile lookup failed: %w", err)
	}
	phone, err := o.sender.ValidateAndCanonicalizeRecipient(user.EmergencyContact)
	if err != nil {
		return nil, fmt.Errorf("invalid emergency contact for user %d: %w", userID, err)
	}
	delivery, err := o.sender.Send(context.WithoutCancel(ctx), user.Fullname, phone, message)
	if err != nil {
		return nil, fmt.Errorf("emergency notification failed: %w", err)
	}
	return delivery, nil
}

// appendHistory persists one exchange. It runs exactly once per successful
// generation, on a context detached from the request so a client disconnect
// cannot tear down the write mid-flight. A failed append is logged, never
// surfaced: losing a history record must not fail the user-visible reply.
func (o *Orchestrator) appendHistory(ctx context.Context, userID int64, message, response string) {
	rec := models.HistoryRecord{UserID: userID, Message: message, Response: response}
	if err := o.st.AddHistory(context.WithoutCancel(ctx), rec); err != nil {
		slog.Error("Orchestrator.appendHistory: failed to persist history record", "error", err, "user_id", userID)
	}
}
