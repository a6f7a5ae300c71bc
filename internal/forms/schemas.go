package forms

import "roleboard/internal/model"

// LoginSchema gates the sign-in form.
func LoginSchema() Schema {
	return Schema{
		"email":    {Required("email"), Email("email")},
		"password": {MinLen("password", 8)},
	}
}

// ProjectSchema gates the project create/edit form.
func ProjectSchema() Schema {
	return Schema{
		"name":        {MinLen("name", 2), MaxLen("name", 255)},
		"description": {MaxLen("description", 255)},
	}
}

// TaskSchema gates the task create/edit form.
func TaskSchema() Schema {
	return Schema{
		"title":      {MinLen("title", 2), MaxLen("title", 255)},
		"status":     {OneOf("status", model.TaskStatuses...)},
		"project_id": {PositiveInt("project_id")},
	}
}

// PasswordChangeSchema gates the change-password form.
func PasswordChangeSchema() Schema {
	return Schema{
		"current_password": {MinLen("current_password", 8)},
		"new_password":     {MinLen("new_password", 8), StrongPassword("new_password")},
	}
}
