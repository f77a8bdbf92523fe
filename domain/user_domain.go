package domain

import "errors"

var (
	MessageSuccessRegister         = "user registered successfully"
	MessageSuccessLogin            = "login success"
	MessageSuccessGetUsers         = "success get users"
	MessageSuccessGetProfile       = "success get profile"
	MessageSuccessSetAvatar        = "avatar updated successfully"
	MessageSuccessDeleteAvatar     = "avatar removed successfully"
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"

	MessageFailedRegister         = "failed to register user"
	MessageFailedLogin            = "failed to login"
	MessageFailedGetUsers         = "failed to get users"
	MessageFailedGetProfile       = "failed to get profile"
	MessageFailedSetAvatar        = "failed to update avatar"
	MessageFailedDeleteAvatar     = "failed to remove avatar"
	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"
	MessageFailedGetSubscriptions = "failed to get subscriptions"

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrCredentialsInvalid = errors.New("invalid email or password")
	ErrSelfSubscribe      = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed  = errors.New("already subscribed to this author")
	ErrNotSubscribed      = errors.New("not subscribed to this author")
	ErrNoAvatarSet        = errors.New("no avatar set")
)

type (
	RegisterRequest struct {
		Email     string `json:"email" validate:"required,email,max=254"`
		Username  string `json:"username" validate:"required,max=150"`
		FirstName string `json:"first_name" validate:"required,max=150"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,min=8"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"auth_token"`
	}

	SetAvatarRequest struct {
		Avatar string `json:"avatar" validate:"required"`
	}

	AvatarResponse struct {
		Avatar string `json:"avatar"`
	}

	UserProfile struct {
		ID           uint   `json:"id"`
		Email        string `json:"email"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		Avatar       string `json:"avatar,omitempty"`
		IsSubscribed bool   `json:"is_subscribed"`
	}

	// UserWithRecipes is the subscription representation: the author profile
	// plus their recipes in condensed form and the total recipe count.
	UserWithRecipes struct {
		UserProfile
		Recipes      []ShortRecipe `json:"recipes"`
		RecipesCount int64         `json:"recipes_count"`
	}
)
