package services

import "regexp"

// phonePattern matches mainland mobile numbers in the normalized
// international form the rest of the system stores: +86 followed by a
// 1[34578]x-prefixed 11-digit number.
var phonePattern = regexp.MustCompile(`^\+861[34578][0-9]{9}$`)

// ValidPhone reports whether phone is in the accepted format.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}
