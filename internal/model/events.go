package model

// EventType names an outbound websocket event
type EventType string

// Lifecycle events
const (
	EvtConnected   EventType = "connected"
	EvtJoinSuccess EventType = "join-success"
	EvtRoster      EventType = "roster"
	EvtUserLeft    EventType = "user-left"
	EvtRoomEnded   EventType = "room-ended"
	EvtError       EventType = "error"
)

// State events, used both for relaying commands and for rehydration
const (
	EvtUpdatedEditor        EventType = "updated-editor"
	EvtUpdatedLearnerEditor EventType = "updated-learner-editor"
	EvtUpdatedLanguage      EventType = "updated-language"
	EvtUpdatedTestCase      EventType = "updated-test-case"
	EvtFreeze               EventType = "freeze"
	EvtHideEditor           EventType = "hide-editor"
	EvtReceiveCallLink      EventType = "receive-call-link"
	EvtTerminateCall        EventType = "terminate-call"
	EvtProblemSelected      EventType = "problem-selected"
	EvtPassOutput           EventType = "pass-output"
	EvtEditorChanged        EventType = "editor-changed"
	EvtMentor               EventType = "mentor"
)
