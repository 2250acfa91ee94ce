package handler

// updateUserRequest is a partial update: absent fields are left unchanged.
type updateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitnil,min=1"`
	LastName  *string `json:"lastName"  validate:"omitnil,min=1"`
	Email     *string `json:"email"     validate:"omitnil,email"`
	Password  *string `json:"password"  validate:"omitnil,min=6,bcryptmax"`
}
