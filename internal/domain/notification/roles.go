package notification

import (
	"context"
	"errors"
	"fmt"
)

// Recipient role tokens understood by the default resolver table.
const (
	RoleUser               = "user"
	RoleTechnician         = "technician"
	RoleAssignedTechnician = "assigned_technician"
	RoleProjectManager     = "project_manager"
	RoleManager            = "manager"
	RoleExecutive          = "executive"
	RoleAdmin              = "admin"
	RoleSupervisor         = "supervisor"
	RoleClient             = "client"
	RoleDriver             = "driver"
	RoleEmployee           = "employee"
	RoleAllEmployees       = "all_employees"
	RoleDepartmentManager  = "department_manager"
)

// DefaultRoleNames maps logical role groups to the role names stored in the
// directory.
var DefaultRoleNames = map[string]string{
	RoleManager:    "Manager",
	RoleExecutive:  "Executive",
	RoleSupervisor: "Supervisor",
}

// RoleResolver computes the user ids one role token targets for an event.
// It may return ids together with an error when only part of the lookup failed.
type RoleResolver func(ctx context.Context, data map[string]any) ([]string, error)

// BranchResult is the outcome of resolving a single role token.
type BranchResult struct {
	Role string
	IDs  []string
	Err  error
}

// registerDefaults installs the built-in role table.
func (r *Resolver) registerDefaults() {
	r.Register(RoleUser, r.resolveUser)
	r.Register(RoleTechnician, r.resolveTechnicians)
	r.Register(RoleAssignedTechnician, r.resolveTechnicians)
	r.Register(RoleProjectManager, r.resolveManagers)
	r.Register(RoleManager, r.resolveManagers)
	r.Register(RoleExecutive, r.resolveExecutives)
	r.Register(RoleAdmin, r.resolveExecutives)
	r.Register(RoleSupervisor, r.resolveSupervisors)
	r.Register(RoleClient, r.resolveClient)
	r.Register(RoleDriver, r.employeeResolver("driverId"))
	r.Register(RoleEmployee, r.employeeResolver("employeeId"))
	r.Register(RoleAllEmployees, r.resolveAllEmployees)
	r.Register(RoleDepartmentManager, r.resolveDepartmentManager)
}

func (r *Resolver) resolveUser(_ context.Context, data map[string]any) ([]string, error) {
	if id, ok := stringField(data, "userId"); ok {
		return []string{id}, nil
	}
	return nil, nil
}

// technicianIDs returns every technician named by the event.
func technicianIDs(data map[string]any) []string {
	var ids []string
	if id, ok := stringField(data, "assignedTechnicianId"); ok {
		ids = append(ids, id)
	}
	return append(ids, stringList(data, "assignedTechnicianIds")...)
}

func (r *Resolver) resolveTechnicians(_ context.Context, data map[string]any) ([]string, error) {
	return technicianIDs(data), nil
}

func (r *Resolver) resolveManagers(ctx context.Context, data map[string]any) ([]string, error) {
	ids, err := r.usersWithRole(ctx, RoleManager)
	for _, key := range []string{"projectManagerId", "managerId"} {
		if id, ok := stringField(data, key); ok {
			ids = append(ids, id)
		}
	}
	return ids, err
}

func (r *Resolver) resolveExecutives(ctx context.Context, data map[string]any) ([]string, error) {
	ids, err := r.usersWithRole(ctx, RoleExecutive)
	for _, key := range []string{"executiveId", "adminId"} {
		if id, ok := stringField(data, key); ok {
			ids = append(ids, id)
		}
	}
	return append(ids, stringList(data, "executiveIds")...), err
}

// resolveSupervisors targets only the direct superior of each named
// technician. Without a named technician it falls back to everyone holding
// the supervisor role.
func (r *Resolver) resolveSupervisors(ctx context.Context, data map[string]any) ([]string, error) {
	techs := technicianIDs(data)
	if len(techs) == 0 {
		return r.usersWithRole(ctx, RoleSupervisor)
	}

	var ids []string
	var errs []error
	for _, tech := range techs {
		supervisor, err := r.directory.GetDirectSupervisor(ctx, tech)
		if err != nil {
			errs = append(errs, fmt.Errorf("supervisor of %s: %w", tech, err))
			continue
		}
		if supervisor != "" {
			ids = append(ids, supervisor)
		}
	}
	return ids, errors.Join(errs...)
}

func (r *Resolver) resolveClient(ctx context.Context, data map[string]any) ([]string, error) {
	clientID, ok := stringField(data, "clientId")
	if !ok {
		return nil, nil
	}
	userID, err := r.directory.GetClientUserID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("client %s: %w", clientID, err)
	}
	if userID == "" {
		return nil, nil
	}
	return []string{userID}, nil
}

// employeeResolver maps an employee id stored under key to its user id.
func (r *Resolver) employeeResolver(key string) RoleResolver {
	return func(ctx context.Context, data map[string]any) ([]string, error) {
		employeeID, ok := stringField(data, key)
		if !ok {
			return nil, nil
		}
		emp, err := r.directory.GetEmployeeByID(ctx, employeeID)
		if err != nil {
			return nil, fmt.Errorf("employee %s: %w", employeeID, err)
		}
		if emp == nil || emp.UserID == "" {
			return nil, nil
		}
		return []string{emp.UserID}, nil
	}
}

func (r *Resolver) resolveAllEmployees(ctx context.Context, _ map[string]any) ([]string, error) {
	employees, err := r.directory.ListActiveEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active employees: %w", err)
	}
	ids := make([]string, 0, len(employees))
	for _, emp := range employees {
		if emp.UserID != "" {
			ids = append(ids, emp.UserID)
		}
	}
	return ids, nil
}

func (r *Resolver) resolveDepartmentManager(ctx context.Context, data map[string]any) ([]string, error) {
	departmentID, ok := stringField(data, "departmentId")
	if !ok {
		return nil, nil
	}
	managerID, err := r.directory.GetDepartmentManager(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("department %s: %w", departmentID, err)
	}
	if managerID == "" {
		return nil, nil
	}
	return []string{managerID}, nil
}

// usersWithRole lists active users for a logical role group.
func (r *Resolver) usersWithRole(ctx context.Context, group string) ([]string, error) {
	roleName := r.roleNames[group]
	if roleName == "" {
		return nil, fmt.Errorf("no stored role name for %q", group)
	}
	users, err := r.directory.ListActiveUsersByRole(ctx, roleName)
	if err != nil {
		return nil, fmt.Errorf("listing users with role %s: %w", roleName, err)
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}
