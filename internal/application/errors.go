package application

// Client-facing messages. Kept stable because clients match on them.
const (
	MsgUserExists          = "User already exist with this email."
	MsgCreateUserFailed    = "Error while creating user."
	MsgUserNotFound        = "User not found."
	MsgIncorrectCreds      = "Email or password are incorrect"
	MsgIssueTokenFailed    = "Error while issuing token."
	MsgProfileUpdateFailed = "Failed to update user profile image."
	MsgProfileUpdateError  = "Something went wrong while updating profile."
	MsgLookupFailed        = "Something went wrong while fetching user."
	MsgListUsersFailed     = "Error while fetching users."
	MsgSearchFailed        = "Error while searching users."
)
