package models

// Programs is the fixed catalog of program names offered on the form. The
// catalog is served to the presentation layer as select options; membership
// is enforced there (browser constraint), not here.
var Programs = []string{
	"Computer Science",
	"Electrical Engineering",
	"Mechanical Engineering",
	"Business Administration",
	"Biology",
	"Psychology",
	"Economics",
	"English Literature",
}
