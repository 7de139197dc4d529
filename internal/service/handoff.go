package service

import "codeclive/internal/model"

// nextAuthority decides who edits after the holder left: the mentor when
// one of its connections remains, else the earliest remaining participant,
// else nobody.
func nextAuthority(mentor model.MentorIdentity, roster []model.RosterEntry) model.EditorAuthority {
	for _, e := range roster {
		if e.Username == mentor.Username {
			return model.MentorAuthority(mentor)
		}
	}
	if len(roster) > 0 {
		return model.DelegatedAuthority(roster[0])
	}
	return model.NoAuthority()
}
