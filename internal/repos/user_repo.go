package repos

import (
	"context"
	"strings"

	"alquitones/internal/domain"
	"alquitones/internal/validate"
)

// UserRepo returns users with their password hash; callers hand out User.Public().
type UserRepo struct{ st *Store }

func NewUserRepo(st *Store) *UserRepo { return &UserRepo{st: st} }

func (r *UserRepo) List() []domain.User {
	var out []domain.User
	r.st.read(func(s *Snapshot) { out = append([]domain.User{}, s.Users...) })
	return out
}

func (r *UserRepo) ByID(id int) (domain.User, error) {
	var (
		u  domain.User
		ok bool
	)
	r.st.read(func(s *Snapshot) {
		if i := s.userIndex(id); i >= 0 {
			u, ok = s.Users[i], true
		}
	})
	if !ok {
		return domain.User{}, domain.NotFound("user", id)
	}
	return u, nil
}

// ByEmail compares case-insensitively.
func (r *UserRepo) ByEmail(email string) (domain.User, error) {
	email = strings.TrimSpace(email)
	var (
		u  domain.User
		ok bool
	)
	r.st.read(func(s *Snapshot) {
		if i := s.userByEmail(email); i >= 0 {
			u, ok = s.Users[i], true
		}
	})
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

func (r *UserRepo) Create(ctx context.Context, in domain.UserInput) (domain.User, error) {
	username, ok := validate.Username(in.Username)
	if !ok {
		return domain.User{}, domain.Invalid("username must be 2-40 letters, digits, spaces or ._-")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return domain.User{}, domain.Invalid("email %q is not valid", in.Email)
	}
	if !validate.Password(in.Password) {
		return domain.User{}, domain.Invalid("password must be 6-72 characters")
	}
	role := in.Role
	if role == "" {
		role = domain.RoleClient
	}
	if !role.Valid() {
		return domain.User{}, domain.Invalid("unknown role %q", role)
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	hash, err := r.st.hash(in.Password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{Username: username, Email: email, PasswordHash: hash, Role: role, IsActive: active}
	err = r.st.write(ctx, "user.create", func(s *Snapshot) error {
		if s.userByEmail(email) >= 0 {
			return domain.Conflict("email %s is already registered", email)
		}
		s.Seq.User++
		u.ID = s.Seq.User
		u.CreatedAt = r.st.Now()
		s.Users = append(s.Users, u)
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *UserRepo) Update(ctx context.Context, id int, p domain.UserPatch) (domain.User, error) {
	var (
		email, username, hash string
		ok                    bool
		err                   error
	)
	if p.Email != nil {
		if email, ok = validate.Email(*p.Email); !ok {
			return domain.User{}, domain.Invalid("email %q is not valid", *p.Email)
		}
	}
	if p.Username != nil {
		if username, ok = validate.Username(*p.Username); !ok {
			return domain.User{}, domain.Invalid("username must be 2-40 letters, digits, spaces or ._-")
		}
	}
	if p.Password != nil {
		if !validate.Password(*p.Password) {
			return domain.User{}, domain.Invalid("password must be 6-72 characters")
		}
		if hash, err = r.st.hash(*p.Password); err != nil {
			return domain.User{}, err
		}
	}
	if p.Role != nil && !p.Role.Valid() {
		return domain.User{}, domain.Invalid("unknown role %q", *p.Role)
	}

	var out domain.User
	err = r.st.write(ctx, "user.update", func(s *Snapshot) error {
		i := s.userIndex(id)
		if i < 0 {
			return domain.NotFound("user", id)
		}
		u := s.Users[i]
		if p.Email != nil && !strings.EqualFold(email, u.Email) {
			if j := s.userByEmail(email); j >= 0 && j != i {
				return domain.Conflict("email %s is already registered", email)
			}
			u.Email = email
		}
		if p.Username != nil {
			u.Username = username
		}
		if hash != "" {
			u.PasswordHash = hash
		}
		if p.Role != nil {
			u.Role = *p.Role
		}
		if p.IsActive != nil {
			u.IsActive = *p.IsActive
		}
		s.Users[i] = u
		out = u
		return nil
	})
	return out, err
}

// DeleteUserCascade cancels the user's active reservations (kept for audit),
// drops favorites and ratings, then removes the user.
func (r *UserRepo) DeleteUserCascade(ctx context.Context, id int) (bool, error) {
	err := r.st.write(ctx, "user.delete", func(s *Snapshot) error {
		i := s.userIndex(id)
		if i < 0 {
			return domain.NotFound("user", id)
		}
		for k := range s.Reservations {
			if s.Reservations[k].UserID == id && s.Reservations[k].Status == domain.ReservationActive {
				s.Reservations[k].Status = domain.ReservationCancelled
			}
		}
		s.Favorites = filter(s.Favorites, func(f domain.Favorite) bool { return f.UserID != id })
		s.Ratings = filter(s.Ratings, func(r domain.Rating) bool { return r.UserID != id })
		s.Users = append(s.Users[:i], s.Users[i+1:]...)
		return nil
	})
	return err == nil, err
}

func (s *Snapshot) userIndex(id int) int {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Snapshot) userByEmail(email string) int {
	for i := range s.Users {
		if strings.EqualFold(s.Users[i].Email, email) {
			return i
		}
	}
	return -1
}
