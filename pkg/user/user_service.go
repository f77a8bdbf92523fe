package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"recipebook/domain"
	"recipebook/entities"
	"recipebook/internal/utils"
	"recipebook/internal/utils/mailing"
	"recipebook/internal/utils/storage"
	"recipebook/pkg/jwt"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.UserProfile, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		GetUsers(ctx context.Context, page, limit int, viewerID uint) ([]domain.UserProfile, int64, error)
		GetProfile(ctx context.Context, targetID, viewerID uint) (domain.UserProfile, error)
		SetAvatar(ctx context.Context, userID uint, req domain.SetAvatarRequest) (domain.AvatarResponse, error)
		DeleteAvatar(ctx context.Context, userID uint) error
		Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (domain.UserWithRecipes, error)
		Unsubscribe(ctx context.Context, userID, authorID uint) error
		GetSubscriptions(ctx context.Context, userID uint, page, limit, recipesLimit int) ([]domain.UserWithRecipes, int64, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		s3             storage.AwsS3
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, s3 storage.AwsS3) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		s3:             s3,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserProfile, error) {
	emailTaken, err := s.userRepository.EmailExists(ctx, req.Email)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if emailTaken {
		return domain.UserProfile{}, domain.ErrEmailAlreadyExists
	}

	usernameTaken, err := s.userRepository.UsernameExists(ctx, req.Username)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if usernameTaken {
		return domain.UserProfile{}, domain.ErrUsernameTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserProfile{}, err
	}

	user := &entities.User{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hashed),
		Role:      domain.RoleUser,
	}
	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		return domain.UserProfile{}, err
	}

	go func(email, firstName string) {
		body := fmt.Sprintf(
			"<p>Hi %s,</p><p>Welcome to %s! Your account is ready — start sharing recipes.</p>",
			firstName, utils.GetConfig("APP_URL"),
		)
		if err := mailing.SendMail(email, "Welcome!", body); err != nil {
			log.Warnf("failed to send welcome email to %s: %v", email, err)
		}
	}(user.Email, user.FirstName)

	return profileOf(user, false), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrCredentialsInvalid
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrCredentialsInvalid
	}

	token := s.jwtService.GenerateTokenUser(strconv.FormatUint(uint64(user.ID), 10), user.Role)
	return domain.LoginResponse{Token: token}, nil
}

func (s *userService) GetUsers(ctx context.Context, page, limit int, viewerID uint) ([]domain.UserProfile, int64, error) {
	users, count, err := s.userRepository.GetUsers(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	authorIDs := make([]uint, 0, len(users))
	for _, u := range users {
		authorIDs = append(authorIDs, u.ID)
	}
	subscribed, err := s.userRepository.GetSubscribedAuthorIDs(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.UserProfile, 0, len(users))
	for _, u := range users {
		result = append(result, profileOf(u, subscribed[u.ID]))
	}
	return result, count, nil
}

func (s *userService) GetProfile(ctx context.Context, targetID, viewerID uint) (domain.UserProfile, error) {
	user, err := s.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserProfile{}, domain.ErrUserNotFound
		}
		return domain.UserProfile{}, err
	}

	isSubscribed := false
	if viewerID != 0 && viewerID != targetID {
		isSubscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, targetID)
		if err != nil {
			return domain.UserProfile{}, err
		}
	}

	return profileOf(user, isSubscribed), nil
}

func (s *userService) SetAvatar(ctx context.Context, userID uint, req domain.SetAvatarRequest) (domain.AvatarResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AvatarResponse{}, domain.ErrUserNotFound
		}
		return domain.AvatarResponse{}, err
	}

	raw, ext, err := utils.DecodeBase64Image(req.Avatar)
	if err != nil {
		return domain.AvatarResponse{}, err
	}

	objectKey, err := s.s3.UploadBytes(
		fmt.Sprintf("avatar-%d", userID),
		raw,
		ext,
		"avatars",
		storage.AllowImage...,
	)
	if err != nil {
		return domain.AvatarResponse{}, err
	}
	avatarURL := s.s3.GetPublicLinkKey(objectKey)

	if user.AvatarURL != "" {
		if err := s.s3.DeleteFile(s.s3.KeyFromPublicLink(user.AvatarURL)); err != nil {
			log.Warnf("failed to delete previous avatar for user %d: %v", userID, err)
		}
	}

	if err := s.userRepository.UpdateAvatar(ctx, userID, avatarURL); err != nil {
		return domain.AvatarResponse{}, err
	}

	return domain.AvatarResponse{Avatar: avatarURL}, nil
}

func (s *userService) DeleteAvatar(ctx context.Context, userID uint) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if user.AvatarURL == "" {
		return domain.ErrNoAvatarSet
	}

	if err := s.s3.DeleteFile(s.s3.KeyFromPublicLink(user.AvatarURL)); err != nil {
		log.Warnf("failed to delete avatar object for user %d: %v", userID, err)
	}

	return s.userRepository.UpdateAvatar(ctx, userID, "")
}

func (s *userService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (domain.UserWithRecipes, error) {
	if userID == authorID {
		return domain.UserWithRecipes{}, domain.ErrSelfSubscribe
	}

	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserWithRecipes{}, domain.ErrUserNotFound
		}
		return domain.UserWithRecipes{}, err
	}

	alreadySubscribed, err := s.userRepository.IsSubscribed(ctx, userID, authorID)
	if err != nil {
		return domain.UserWithRecipes{}, err
	}
	if alreadySubscribed {
		return domain.UserWithRecipes{}, domain.ErrAlreadySubscribed
	}

	subscription := &entities.Subscription{
		UserID:   userID,
		AuthorID: authorID,
	}
	if err := s.userRepository.CreateSubscription(ctx, subscription); err != nil {
		return domain.UserWithRecipes{}, err
	}

	return s.subscribeRepresentation(ctx, author, recipesLimit)
}

func (s *userService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	deleted, err := s.userRepository.DeleteSubscription(ctx, userID, authorID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotSubscribed
	}
	return nil
}

func (s *userService) GetSubscriptions(ctx context.Context, userID uint, page, limit, recipesLimit int) ([]domain.UserWithRecipes, int64, error) {
	authors, count, err := s.userRepository.GetSubscribedAuthors(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.UserWithRecipes, 0, len(authors))
	for _, author := range authors {
		repr, err := s.subscribeRepresentation(ctx, author, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, repr)
	}
	return result, count, nil
}

func (s *userService) subscribeRepresentation(ctx context.Context, author *entities.User, recipesLimit int) (domain.UserWithRecipes, error) {
	recipes, err := s.userRepository.GetRecipesByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return domain.UserWithRecipes{}, err
	}

	count, err := s.userRepository.CountRecipesByAuthor(ctx, author.ID)
	if err != nil {
		return domain.UserWithRecipes{}, err
	}

	short := make([]domain.ShortRecipe, 0, len(recipes))
	for _, recipe := range recipes {
		short = append(short, domain.ShortRecipe{
			ID:          recipe.ID,
			Name:        recipe.Name,
			Image:       recipe.ImageURL,
			CookingTime: recipe.CookingTime,
		})
	}

	return domain.UserWithRecipes{
		UserProfile:  profileOf(author, true),
		Recipes:      short,
		RecipesCount: count,
	}, nil
}

func profileOf(user *entities.User, isSubscribed bool) domain.UserProfile {
	return domain.UserProfile{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Avatar:       user.AvatarURL,
		IsSubscribed: isSubscribed,
	}
}
