// Package domain contains core concepts of the fences system.
// This file defines the per-conversation dialogue session.
package domain

import "time"

// State identifies where a conversation currently stands in the
// compose or admin dialogue.
type State string

const (
	StateIdle State = "idle"

	// Compose flow.
	StateChoosingRecipient State = "choosing_recipient"
	StateEnteringAlias     State = "entering_alias"
	StateTypingMessage     State = "typing_message"

	// Admin flow.
	StateChoosingAction             State = "admin_choosing_action"
	StateChoosingRole               State = "admin_choosing_role"
	StateAddingUsername             State = "admin_adding_username"
	StateAddingLabel                State = "admin_adding_label"
	StateRemovingUser               State = "admin_removing_user"
	StateSettingAdminOn             State = "admin_setting_admin_on"
	StateSettingAdminOff            State = "admin_setting_admin_off"
	StateSettingExpiration          State = "admin_setting_expiration"
	StateChoosingBroadcastScope     State = "admin_choosing_broadcast_scope"
	StateChoosingBroadcastRecipient State = "admin_choosing_broadcast_recipient"
	StateComposingBroadcast         State = "admin_composing_broadcast"
)

// Scratch holds everything a dialogue accumulates before committing.
// Cleared together with the session.
type Scratch struct {
	Recipient string
	Alias     string
	Chunks    []Chunk

	// Admin flow leftovers.
	PendingUsername string
	PendingAdmin    bool
	BroadcastAll    bool
	BroadcastTo     string
}

// Session is the ephemeral dialogue state of one conversation. It is
// created on first interaction and cleared on completion, cancellation,
// or any admin action that finishes a sub-flow.
type Session struct {
	ConversationID string
	Username       string
	State          State
	Scratch        Scratch
	TouchedAt      time.Time
}

// Reset returns the session to the idle state and drops the scratch.
func (s *Session) Reset() {
	s.State = StateIdle
	s.Scratch = Scratch{}
}
