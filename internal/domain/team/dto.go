package team

type CreateRequest struct {
	Name        string `json:"name" validate:"max=100"`
	Description string `json:"description" validate:"max=2000"`
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,max=255"`
	Role  string `json:"role" validate:"omitempty,oneof=admin member"`
}
