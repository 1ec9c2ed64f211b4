package usercontext

// Locals keys shared by middleware and controllers
const (
	LocalsKey   = "USER_CONTEXT"
	KeyUserID   = "user_id"
	KeyUsername = "username"
)
