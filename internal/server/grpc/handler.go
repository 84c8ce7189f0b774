package grpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	scopePersonal  = "personal"
	scopeClassroom = "classroom"
)

func field(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

// ownerFrom resolves the container a request addresses: the caller's own
// notes or the classroom named in classroom_id.
func ownerFrom(req *structpb.Struct, callerID string) (models.Owner, error) {
	switch scope := field(req, "scope"); scope {
	case scopePersonal, "":
		return models.PersonalOwner(callerID), nil
	case scopeClassroom:
		return models.ClassroomOwner(field(req, "classroom_id")), nil
	default:
		return models.Owner{}, fmt.Errorf("unknown scope %q: %w", scope, common.ErrInvalidInput)
	}
}

func recordValue(d models.Descriptor) map[string]any {
	return map[string]any{
		"id":            d.ID,
		"original_name": d.OriginalName,
		"storage_ref":   d.StorageRef,
		"created_at":    d.CreatedAt.Format(time.RFC3339Nano),
		"url":           d.URL,
	}
}

func classroomValue(c *models.Classroom) map[string]any {
	students := make([]any, 0, len(c.Students))
	for _, id := range c.Students {
		students = append(students, id)
	}
	return map[string]any{
		"id":         c.ID,
		"name":       c.Name,
		"teacher_id": c.TeacherID,
		"join_code":  c.JoinCode,
		"students":   students,
		"file_count": float64(len(c.Files)),
		"created_at": c.CreatedAt.Format(time.RFC3339Nano),
	}
}

func (s *GRPCServer) reply(ctx context.Context, v map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(v)
	if err != nil {
		return nil, s.toStatus(ctx, fmt.Errorf("encode reply: %w", err))
	}
	return out, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(ctx, map[string]any{"status": "OK"})
}

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, token, err := s.users.Register(ctx, field(req, "name"), models.Role(field(req, "role")))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID, "role", string(user.Role))
	return s.reply(ctx, map[string]any{
		"user_id":      user.ID,
		"role":         string(user.Role),
		"access_token": token,
	})
}

func (s *GRPCServer) CreateClassroom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.classrooms.Create(ctx, caller.UserID, field(req, "name"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, classroomValue(c))
}

func (s *GRPCServer) JoinClassroom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.classrooms.Join(ctx, caller.UserID, field(req, "join_code"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, classroomValue(c))
}

func (s *GRPCServer) GetClassroom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	owner := models.ClassroomOwner(field(req, "classroom_id"))
	if err := s.access.RequireRead(ctx, caller.UserID, owner); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	c, err := s.classrooms.Get(ctx, owner.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, classroomValue(c))
}

func (s *GRPCServer) DeleteClassroom(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	owner := models.ClassroomOwner(field(req, "classroom_id"))
	if err := s.access.RequireManage(ctx, caller.UserID, owner); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.files.DeleteClassroom(ctx, owner.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, map[string]any{})
}

func (s *GRPCServer) UploadFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := ownerFrom(req, caller.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.access.RequireManage(ctx, caller.UserID, owner); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	content, err := base64.StdEncoding.DecodeString(field(req, "content"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "content is not base64")
	}

	name := field(req, "name")
	var d *models.Descriptor
	if owner.Kind == models.OwnerUser {
		d, err = s.files.UploadToPersonal(ctx, owner.ID, name, bytes.NewReader(content))
	} else {
		d, err = s.files.UploadToClassroom(ctx, owner.ID, name, bytes.NewReader(content))
	}
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, recordValue(*d))
}

func (s *GRPCServer) ListFiles(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := ownerFrom(req, caller.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.access.RequireRead(ctx, caller.UserID, owner); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	records, err := s.files.List(ctx, owner)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	files := make([]any, 0, len(records))
	for _, d := range s.files.Describe(ctx, records) {
		files = append(files, recordValue(d))
	}
	return s.reply(ctx, map[string]any{"files": files})
}

func (s *GRPCServer) GetFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := ownerFrom(req, caller.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.access.RequireRead(ctx, caller.UserID, owner); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	d, err := s.files.Find(ctx, owner, field(req, "record_id"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, recordValue(*d))
}

func (s *GRPCServer) RenameFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := ownerFrom(req, caller.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.access.RequireManage(ctx, caller.UserID, owner); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	d, err := s.files.RenameRecord(ctx, owner, field(req, "record_id"), field(req, "name"))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, recordValue(*d))
}

func (s *GRPCServer) DeleteFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	owner, err := ownerFrom(req, caller.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.access.RequireManage(ctx, caller.UserID, owner); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	if err := s.files.DeleteRecord(ctx, owner, field(req, "record_id")); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, map[string]any{})
}

// PublishFile shares a record from the caller's notes into a classroom the
// caller teaches.
func (s *GRPCServer) PublishFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	target := models.ClassroomOwner(field(req, "classroom_id"))
	if err := s.access.RequireManage(ctx, caller.UserID, target); err != nil {
		return nil, s.toStatus(ctx, err)
	}

	d, err := s.files.PublishFromPersonal(ctx, caller.UserID, field(req, "record_id"), target.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, recordValue(*d))
}
