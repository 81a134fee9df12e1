package dto

type JoinTeamRequest struct {
	Email string `json:"email"`
}

type JoinTeamResponse struct {
	Outcome        string             `json:"outcome"`
	Team           TeamResponse       `json:"team"`
	Member         TeamMemberResponse `json:"member"`
	RequiredFields []string           `json:"required_fields"`
	Created        bool               `json:"created"`
	ConfirmURL     string             `json:"confirm_url"`
}

type ConfirmJoinRequest struct {
	Fields MemberFields `json:"fields"`
}

type SeedInviteeRequest struct {
	Email  string       `json:"email"`
	Fields MemberFields `json:"fields"`
}
