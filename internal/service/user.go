package service

import (
	"context"
	"errors"
	"strings"

	"studenthelp/backend/internal/apperr"
	"studenthelp/backend/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterParams carries the fields needed to create an account.
type RegisterParams struct {
	Name     string
	Username string
	Email    string
	Password string
}

// ProfileUpdate holds the profile fields a user may change. Nil fields are left as is.
type ProfileUpdate struct {
	Name           *string
	School         *string
	Program        *string
	StudentYear    *int
	Bio            *string
	ProfilePicture *string
	// SkillIDs replaces the user's skills when non-nil.
	SkillIDs []uint
}

// UserHit is a search result with the viewer's relation to the user.
type UserHit struct {
	User     models.User
	Relation Relation
}

// UserService manages accounts, profiles and the skill vocabulary.
type UserService struct {
	db          *gorm.DB
	connections *ConnectionService
}

// NewUserService creates a UserService.
func NewUserService(db *gorm.DB, connections *ConnectionService) *UserService {
	return &UserService{db: db, connections: connections}
}

// Register creates a permanent account. The username defaults to the local part of the email.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	username := strings.TrimSpace(params.Username)
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	name := normalizeText(params.Name)
	if email == "" || username == "" || name == "" {
		return nil, apperr.NewBadRequest("Name and email are required")
	}

	db := s.db.WithContext(ctx)

	var existing models.User
	err := db.Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, apperr.NewConflict("Username or email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Wrap(apperr.Internal, "Failed to check existing user", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to hash password", err)
	}

	user := models.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
	}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Wrap(apperr.Conflict, "Username or email already exists", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to create user", err)
	}
	return &user, nil
}

// Authenticate checks a username or email against the stored password hash.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", login, strings.ToLower(login)).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.Unauthenticated, "Invalid credentials")
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to load user", err)
	}

	if user.IsTemporary || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperr.New(apperr.Unauthenticated, "Invalid credentials")
	}
	return &user, nil
}

// CreateGuest creates a temporary account that is hidden from search.
func (s *UserService) CreateGuest(ctx context.Context) (*models.User, error) {
	id := uuid.NewString()
	user := models.User{
		Name:        "Guest",
		Username:    "guest-" + id[:8],
		Email:       id + "@guest.invalid",
		Role:        models.RoleUser,
		IsTemporary: true,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to create guest user", err)
	}
	return &user, nil
}

// Get loads a user with their skills.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Skills").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("User not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to load user", err)
	}
	return &user, nil
}

// Search finds permanent users other than the viewer whose name, username,
// school or program contains query. An empty query lists everyone.
func (s *UserService) Search(ctx context.Context, viewerID uint, query string, page, limit int) (*Page[UserHit], error) {
	db := s.db.WithContext(ctx).Model(&models.User{}).
		Where("users.id <> ? AND users.is_temporary = ?", viewerID, false)

	if strings.TrimSpace(query) != "" {
		pattern := containsPattern(query)
		db = db.Where(
			`(LOWER(users.name) LIKE ? ESCAPE '\' OR LOWER(users.username) LIKE ? ESCAPE '\' OR LOWER(users.school) LIKE ? ESCAPE '\' OR LOWER(users.program) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern, pattern,
		)
	}

	users, err := paginate[models.User](db, "users.created_at DESC, users.id DESC", page, limit, "Skills")
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to search users", err)
	}

	ids := make([]uint, 0, len(users.Items))
	for _, u := range users.Items {
		ids = append(ids, u.ID)
	}
	relations, err := s.connections.RelationsFor(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	hits := make([]UserHit, 0, len(users.Items))
	for _, u := range users.Items {
		hits = append(hits, UserHit{User: u, Relation: relations[u.ID]})
	}
	return &Page[UserHit]{Items: hits, Total: users.Total, Page: users.Page, Limit: users.Limit}, nil
}

// UpdateProfile applies update to userID's profile and returns the fresh record.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, update ProfileUpdate) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		name := normalizeText(*update.Name)
		if name == "" {
			return nil, apperr.NewBadRequest("Name cannot be empty")
		}
		user.Name = name
	}
	if update.School != nil {
		user.School = normalizeText(*update.School)
	}
	if update.Program != nil {
		user.Program = normalizeText(*update.Program)
	}
	if update.StudentYear != nil {
		if *update.StudentYear < 0 {
			return nil, apperr.NewBadRequest("Student year cannot be negative")
		}
		user.StudentYear = *update.StudentYear
	}
	if update.Bio != nil {
		user.Bio = strings.TrimSpace(*update.Bio)
	}
	if update.ProfilePicture != nil {
		user.ProfilePicture = strings.TrimSpace(*update.ProfilePicture)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Skills").Save(user).Error; err != nil {
			return err
		}
		if update.SkillIDs == nil {
			return nil
		}
		skills := []*models.Skill{}
		if len(update.SkillIDs) > 0 {
			if err := tx.Find(&skills, update.SkillIDs).Error; err != nil {
				return err
			}
		}
		return tx.Model(user).Association("Skills").Replace(skills)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to update profile", err)
	}

	return s.Get(ctx, userID)
}

// ListSkills returns the skill vocabulary ordered by name.
func (s *UserService) ListSkills(ctx context.Context) ([]models.Skill, error) {
	skills := []models.Skill{}
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&skills).Error; err != nil {
		return nil, apperr.Wrap(apperr.Internal, "Failed to fetch skills", err)
	}
	return skills, nil
}

// CreateSkill adds a skill to the vocabulary.
func (s *UserService) CreateSkill(ctx context.Context, name string) (*models.Skill, error) {
	name = normalizeText(name)
	if name == "" {
		return nil, apperr.NewBadRequest("Name is required")
	}
	skill := models.Skill{Name: name}
	if err := s.db.WithContext(ctx).Create(&skill).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Wrap(apperr.Conflict, "Skill already exists", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to create skill", err)
	}
	return &skill, nil
}

// RenameSkill changes a skill's name.
func (s *UserService) RenameSkill(ctx context.Context, id uint, name string) (*models.Skill, error) {
	name = normalizeText(name)
	if name == "" {
		return nil, apperr.NewBadRequest("Name is required")
	}

	db := s.db.WithContext(ctx)
	var skill models.Skill
	if err := db.First(&skill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("Skill not found")
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to load skill", err)
	}

	skill.Name = name
	if err := db.Save(&skill).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Wrap(apperr.Conflict, "Skill already exists", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "Failed to update skill", err)
	}
	return &skill, nil
}

// DeleteSkill removes a skill and detaches it from every profile.
func (s *UserService) DeleteSkill(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skill := models.Skill{}
		if err := tx.First(&skill, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NewNotFound("Skill not found")
			}
			return apperr.Wrap(apperr.Internal, "Failed to load skill", err)
		}
		if err := tx.Exec("DELETE FROM user_skills WHERE skill_id = ?", id).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "Failed to detach skill", err)
		}
		// Hard delete so the name can be reused.
		if err := tx.Unscoped().Delete(&skill).Error; err != nil {
			return apperr.Wrap(apperr.Internal, "Failed to delete skill", err)
		}
		return nil
	})
}
