package dto

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	Name     string  `json:"name" binding:"required,min=4,max=16"`
	Password *string `json:"password" binding:"omitempty,min=6,max=18"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=18"`
}

// UpdateUserRequest represents a self-service profile update
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=4,max=12"`
	Password *string `json:"password" binding:"omitempty,min=4,max=16"`
}

// PatchUserQuery toggles the blocked flag of a user
type PatchUserQuery struct {
	IsBlocked string `form:"isBlocked" binding:"required,oneof=true false"`
}

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// UpdateProductRequest represents a partial product update
type UpdateProductRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1"`
	Description *string `json:"description" binding:"omitempty,min=1"`
}

// CreateStatisticRequest represents a new statistics record
type CreateStatisticRequest struct {
	Level     *int     `json:"level" binding:"omitempty,min=1,max=100"`
	TotalTime *string  `json:"totalTime"`
	Score     *float64 `json:"score"`
	Other     *string  `json:"other"`
}

// StatsQueryOne sorts by a single field
type StatsQueryOne struct {
	Field     string `form:"field" binding:"required,oneof=totalTime score other"`
	SortOrder string `form:"sortOrder" binding:"required,oneof=asc desc"`
	Limit     int    `form:"limit" binding:"required,gt=0"`
}

// StatsQueryTwo sorts by a primary and a secondary field
type StatsQueryTwo struct {
	MainField       string `form:"mainField" binding:"required,oneof=totalTime score other"`
	MainSortOrder   string `form:"mainSortOrder" binding:"required,oneof=asc desc"`
	SecondField     string `form:"secondField" binding:"required,oneof=totalTime score other"`
	SecondSortOrder string `form:"secondSortOrder" binding:"required,oneof=asc desc"`
	Limit           int    `form:"limit" binding:"required,gt=0"`
}

// ProductScope narrows user statistics to one product
type ProductScope struct {
	ProductID string `form:"productId" binding:"required,uuid"`
}
