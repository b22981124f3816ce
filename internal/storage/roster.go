package storage

import (
	"context"
	"fmt"

	"tutorbook/internal/core"
	applog "tutorbook/internal/log"
)

const studentColumns = `id, name, COALESCE(phone, '') AS phone, COALESCE(group_id, '') AS group_id,
	monthly_fee, join_date, COALESCE(note, '') AS note, created_at`

func (s *Store) ListGroups(ctx context.Context) ([]core.Group, error) {
	groups := []core.Group{}
	if err := s.selectAll(ctx, &groups, `SELECT id, name, created_at FROM groups ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (s *Store) CreateGroup(ctx context.Context, g core.Group) (core.Group, error) {
	g.ID = newID(g.ID)
	g.CreatedAt = s.now()
	if _, err := s.exec(ctx, `INSERT INTO groups (id, name, created_at) VALUES (?, ?, ?)`, g.ID, g.Name, g.CreatedAt); err != nil {
		return core.Group{}, fmt.Errorf("create group: %w", err)
	}
	s.logger.InfoContext(ctx, "Group created", applog.FieldGroupID, g.ID, applog.FieldOperation, applog.OpCreate)
	return g, nil
}

// DeleteGroup removes a group and its reminder override. The last remaining
// group cannot be deleted. Students keep their now dangling group_id.
func (s *Store) DeleteGroup(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Concurrent deletes must see each other's result, or the last two groups
	// could both go. SQLite already serializes writers.
	if s.dialect == DialectPostgres {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE groups IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock groups: %w", err)
		}
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM groups`); err != nil {
		return fmt.Errorf("count groups: %w", err)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM groups WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if count <= 1 {
		return ErrLastGroup
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM group_settings WHERE group_id = ?`), id); err != nil {
		return fmt.Errorf("delete group override: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.InfoContext(ctx, "Group deleted", applog.FieldGroupID, id, applog.FieldOperation, applog.OpDelete)
	return nil
}

// ListStudents returns students newest first.
func (s *Store) ListStudents(ctx context.Context) ([]core.Student, error) {
	students := []core.Student{}
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY created_at DESC, id ASC`
	if err := s.selectAll(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (s *Store) CreateStudent(ctx context.Context, st core.Student) (core.Student, error) {
	st.ID = newID(st.ID)
	st.CreatedAt = s.now()
	_, err := s.exec(ctx, `INSERT INTO students (id, name, phone, group_id, monthly_fee, join_date, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Name, st.Phone, nullable(st.GroupID), st.MonthlyFee, st.JoinDate, st.Note, st.CreatedAt)
	if err != nil {
		return core.Student{}, fmt.Errorf("create student: %w", err)
	}
	s.logger.InfoContext(ctx, "Student created", applog.FieldStudentID, st.ID, applog.FieldOperation, applog.OpCreate)
	return st, nil
}

func (s *Store) UpdateStudent(ctx context.Context, st core.Student) (core.Student, error) {
	err := s.execOne(ctx, `UPDATE students SET name = ?, phone = ?, group_id = ?, monthly_fee = ?, join_date = ?, note = ?
		WHERE id = ?`,
		st.Name, st.Phone, nullable(st.GroupID), st.MonthlyFee, st.JoinDate, st.Note, st.ID)
	if err != nil {
		return core.Student{}, fmt.Errorf("update student %s: %w", st.ID, err)
	}
	return s.getStudent(ctx, st.ID)
}

// DeleteStudent removes a student and their reminder override. Payments are
// kept; they become unresolved.
func (s *Store) DeleteStudent(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM students WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete student %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete student %s: %w", id, ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM student_settings WHERE student_id = ?`), id); err != nil {
		return fmt.Errorf("delete student override: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.InfoContext(ctx, "Student deleted", applog.FieldStudentID, id, applog.FieldOperation, applog.OpDelete)
	return nil
}

func (s *Store) getStudent(ctx context.Context, id string) (core.Student, error) {
	var st []core.Student
	if err := s.selectAll(ctx, &st, `SELECT `+studentColumns+` FROM students WHERE id = ?`, id); err != nil {
		return core.Student{}, fmt.Errorf("get student %s: %w", id, err)
	}
	if len(st) == 0 {
		return core.Student{}, ErrNotFound
	}
	return st[0], nil
}
