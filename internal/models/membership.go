package models

import (
	"fmt"

	"github.com/google/uuid"
)

type MembershipState int

const (
	MembershipUnregistered MembershipState = iota
	MembershipRegisteredIndividual
	MembershipPendingTeamMember
	MembershipAcceptedTeamMember
)

var membershipStateNames = map[MembershipState]string{
	MembershipUnregistered:         "unregistered",
	MembershipRegisteredIndividual: "registered_individual",
	MembershipPendingTeamMember:    "pending_team_member",
	MembershipAcceptedTeamMember:   "accepted_team_member",
}

func (s MembershipState) String() string {
	if name, ok := membershipStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("membership_state(%d)", int(s))
}

func (s MembershipState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Membership is a user's resolved state for one event. TeamID and MemberID
// are set only for the team states; IsLeader only for accepted members.
type Membership struct {
	State    MembershipState `json:"state"`
	TeamID   uuid.UUID       `json:"team_id,omitempty"`
	MemberID uuid.UUID       `json:"member_id,omitempty"`
	IsLeader bool            `json:"is_leader"`
}

func (m Membership) IsAcceptedIn(teamID uuid.UUID) bool {
	return m.State == MembershipAcceptedTeamMember && m.TeamID == teamID
}

// Registered reports whether the user already occupies a slot in the event.
func (m Membership) Registered() bool {
	return m.State == MembershipRegisteredIndividual || m.State == MembershipAcceptedTeamMember
}
