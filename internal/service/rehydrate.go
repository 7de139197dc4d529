package service

import "codeclive/internal/model"

// rehydrate pushes the full room state to every participant so that a late
// joiner converges without having seen earlier deltas. Freeze and hide are
// sent per connection because they can be overridden individually.
func (r *Relay) rehydrate(roster []model.RosterEntry, s *model.RoomSession) {
	r.toRoom(roster, model.EvtReceiveCallLink, CallLinkPayload{Link: s.CallLink})
	r.toRoom(roster, model.EvtUpdatedEditor, CodePayload{Code: s.Code})
	r.toRoom(roster, model.EvtUpdatedLanguage, LanguagePayload{Language: s.LanguageUsed})
	if s.TestCase != nil {
		r.toRoom(roster, model.EvtUpdatedTestCase, TestCasePayload{TestCase: s.TestCase})
	}
	for _, e := range roster {
		r.send(e.ConnectionID, model.EvtFreeze, FlagPayload{Value: s.IsFrozenFor(e.ConnectionID)})
		r.send(e.ConnectionID, model.EvtHideEditor, FlagPayload{Value: s.IsHiddenFor(e.ConnectionID)})
	}
	r.toRoom(roster, model.EvtMentor, s.Mentor)
	r.toRoom(roster, model.EvtEditorChanged, s.Editor)
	if s.SelectedProblem != nil {
		r.toRoom(roster, model.EvtProblemSelected, ProblemPayload{Problem: s.SelectedProblem})
	}
}
