// Package models defines the core data structures for the Baseer gateway.
//
// It includes the intent vocabulary, user and contact records, dialogue
// types, and the JSON request/response envelopes shared across modules.
package models

import (
	"errors"
	"time"
)

// Intent is a device/action command extracted from a generated reply.
type Intent string

const (
	IntentCamera    Intent = "CAMERA"
	IntentLocation  Intent = "LOCATION"
	IntentPhone     Intent = "PHONE"
	IntentEmergency Intent = "EMERGENCY"
	IntentBluetooth Intent = "BLUETOOTH"
	IntentSound     Intent = "SOUND"
	IntentWifi      Intent = "WIFI"
	IntentTime      Intent = "TIME"
	IntentWhatsApp  Intent = "WHATSAPP"
	// IntentNone marks a plain conversational reply with no embedded command.
	IntentNone Intent = ""
)

// IntentPriority is the fixed scan order for intent keywords. The order is
// significant: when a reply contains multiple keywords, the earliest listed
// one wins regardless of its position in the text.
var IntentPriority = []Intent{
	IntentCamera,
	IntentLocation,
	IntentPhone,
	IntentEmergency,
	IntentBluetooth,
	IntentSound,
	IntentWifi,
	IntentTime,
	IntentWhatsApp,
}

// Error variables for better error handling and testability
var (
	ErrInvalidInput       = errors.New("missing required field")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrDuplicateUser      = errors.New("username or phone already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrNoRecipient        = errors.New("no recipient phone number resolved")
)

// DialogueRole identifies the author of a dialogue turn.
type DialogueRole string

const (
	RoleUser  DialogueRole = "user"
	RoleModel DialogueRole = "model"
)

// DialogueTurn is a single turn in a dialogue history. An ordered sequence
// of turns, oldest first, forms the history handed to the model.
type DialogueTurn struct {
	Role DialogueRole `json:"role"`
	Text string       `json:"text"`
}

// User is a registered account. Username and phone are jointly unique.
type User struct {
	ID               int64  `json:"id"`
	Username         string `json:"username"`
	Fullname         string `json:"fullname"`
	Password         string `json:"-"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	Illness          string `json:"illness"`
	Gender           string `json:"gender"`
	Age              string `json:"age"`
	EmergencyContact string `json:"imergency_contact"`
}

// Contact is one entry of the shared contact directory.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// HistoryRecord is one persisted (message, response) exchange. Append-only;
// never updated or deleted by this system.
type HistoryRecord struct {
	UserID   int64     `json:"user_id"`
	Message  string    `json:"message"`
	Response string    `json:"response"`
	Time     time.Time `json:"time,omitempty"`
}

// ChatRequest is the body of POST /chat and POST /emergency.
type ChatRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// ImageRequest is the body of POST /image. Image is base64-encoded.
type ImageRequest struct {
	UserID  string `json:"user_id"`
	Image   string `json:"image"`
	Message string `json:"message"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /registeration. The endpoint path and
// the imergency_contact field spelling are the wire contract inherited from
// existing clients and are kept as-is.
type RegisterRequest struct {
	Username         string `json:"username"`
	Fullname         string `json:"fullname"`
	Password         string `json:"password"`
	Phone            string `json:"phone"`
	Address          string `json:"address"`
	Illness          string `json:"illness"`
	Gender           string `json:"gender"`
	Age              string `json:"age"`
	EmergencyContact string `json:"imergency_contact"`
}

// Validate checks that every registration field is present.
func (r *RegisterRequest) Validate() error {
	if r.Username == "" || r.Fullname == "" || r.Password == "" || r.Phone == "" ||
		r.Address == "" || r.Illness == "" || r.Gender == "" || r.Age == "" ||
		r.EmergencyContact == "" {
		return ErrInvalidInput
	}
	return nil
}

// DeliveryResult describes one accepted notification send.
type DeliveryResult struct {
	Backend   string `json:"backend"`
	To        string `json:"to"`
	MessageID string `json:"message_id,omitempty"`
	Status    string `json:"status"`
}

// ChatResult is the outcome of one chat turn after intent dispatch.
type ChatResult struct {
	Intent   Intent          `json:"order,omitempty"`
	Message  string          `json:"message"`
	Phone    string          `json:"phone,omitempty"`
	RawReply string          `json:"response,omitempty"`
	Delivery *DeliveryResult `json:"delivery,omitempty"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse is the JSON envelope returned by every endpoint.
type APIResponse struct {
	Status  APIStatus   `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Result: result}
}

// SuccessWithMessage creates a successful API response with a message and
// optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: APIStatusError, Message: message}
}
