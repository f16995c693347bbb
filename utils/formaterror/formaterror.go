package formaterror

import "strings"

// FormatError maps raw database error strings to user-facing field errors.
func FormatError(err string) map[string]string {
	errList := make(map[string]string)

	if strings.Contains(err, "username") {
		errList["Taken_username"] = "Username Already Taken"
		return errList
	}
	if strings.Contains(err, "email") {
		errList["Taken_email"] = "Email Already Taken"
		return errList
	}
	if strings.Contains(err, "name") {
		errList["Taken_name"] = "Name Already Taken"
		return errList
	}
	if strings.Contains(err, "record not found") {
		errList["No_record"] = "No Record Found"
		return errList
	}
	if strings.Contains(err, "hashedPassword") {
		errList["Incorrect_password"] = "Incorrect Password"
		return errList
	}

	errList["Incorrect_details"] = "Incorrect Details"
	return errList
}
