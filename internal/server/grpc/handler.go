package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/tenantgov/internal/common"
	"github.com/dmitrijs2005/tenantgov/internal/server/credentials"
	"github.com/dmitrijs2005/tenantgov/internal/server/delegation"
	"github.com/dmitrijs2005/tenantgov/internal/server/models"
	"github.com/dmitrijs2005/tenantgov/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// AccountService is the part of services.AccountService the handlers use.
type AccountService interface {
	Status(ctx context.Context, accountID, userID string) models.Status
	Login(ctx context.Context, accountID, userID, password string) (*services.LoginResult, error)
	ResetPassword(ctx context.Context, accountID, actor string) (string, error)
	SetPassword(ctx context.Context, accountID, actor, newPassword string) error
	ChangePassword(ctx context.Context, accountID, actor, oldPassword, newPassword string) error
	Property(ctx context.Context, kind delegation.Kind, accountID, key string) (string, bool, error)
}

func field(req *structpb.Struct, name string) string {
	if v, ok := req.GetFields()[name]; ok {
		return strings.TrimSpace(v.GetStringValue())
	}
	return ""
}

func required(req *structpb.Struct, names ...string) error {
	for _, n := range names {
		if field(req, n) == "" {
			return status.Errorf(codes.InvalidArgument, "%s is required", n)
		}
	}
	return nil
}

func response(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

// toStatus maps service errors onto gRPC codes.
func toStatus(err error) error {
	var verr *credentials.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Errorf(codes.InvalidArgument, "password rejected: %s", verr.Reason)
	case errors.Is(err, common.ErrPasswordRejected):
		return status.Error(codes.InvalidArgument, "password rejected")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrAccountNotUsable):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCServer) AccountStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := required(req, "account_id"); err != nil {
		return nil, err
	}

	st := s.accounts.Status(ctx, field(req, "account_id"), field(req, "user_id"))

	return response(map[string]any{
		"status": st.String(),
		"usable": st.IsUsable(),
	})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := required(req, "account_id", "password"); err != nil {
		return nil, err
	}

	accountID := field(req, "account_id")
	res, err := s.accounts.Login(ctx, accountID, field(req, "user_id"), req.GetFields()["password"].GetStringValue())
	if err != nil {
		if !errors.Is(err, common.ErrorUnauthorized) && !errors.Is(err, common.ErrAccountNotUsable) {
			s.logger.Error(ctx, "login failed", "account", accountID, "error", err)
		}
		return nil, toStatus(err)
	}

	return response(map[string]any{
		"status":               res.Status.String(),
		"password_expired":     res.PasswordExpired,
		"must_change_password": res.MustChangePassword,
	})
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := required(req, "account_id"); err != nil {
		return nil, err
	}

	accountID := field(req, "account_id")
	plain, err := s.accounts.ResetPassword(ctx, accountID, ActorFromContext(ctx))
	if err != nil {
		s.logger.Error(ctx, "password reset failed", "account", accountID, "error", err)
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "password reset", "account", accountID)
	return response(map[string]any{"temp_password": plain})
}

// SetPassword changes the password. With old_password present the caller
// has to prove the current password and is audited as the user (or the
// account); without it the change is administrative and the actor comes
// from the admin token.
func (s *GRPCServer) SetPassword(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := required(req, "account_id", "new_password"); err != nil {
		return nil, err
	}

	accountID := field(req, "account_id")
	newPassword := req.GetFields()["new_password"].GetStringValue()

	var err error
	if old, ok := req.GetFields()["old_password"]; ok {
		actor := field(req, "user_id")
		if actor == "" {
			actor = accountID
		}
		err = s.accounts.ChangePassword(ctx, accountID, actor, old.GetStringValue(), newPassword)
	} else {
		err = s.accounts.SetPassword(ctx, accountID, ActorFromContext(ctx), newPassword)
	}
	if err != nil {
		return nil, toStatus(err)
	}

	return response(map[string]any{"ok": true})
}

func (s *GRPCServer) ResolveProperty(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := required(req, "account_id", "kind", "key"); err != nil {
		return nil, err
	}

	kind, ok := delegation.ParseKind(field(req, "kind"))
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown kind %q", field(req, "kind"))
	}

	v, found, err := s.accounts.Property(ctx, kind, field(req, "account_id"), field(req, "key"))
	if err != nil {
		return nil, toStatus(err)
	}

	return response(map[string]any{
		"value": v,
		"found": found,
	})
}
