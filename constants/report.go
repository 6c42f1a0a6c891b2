package constants

// Outcome log serialization.
const (
	Yes = "YES"
	No  = "NO"

	OutcomeLogFile     = "file_report.csv"
	LicenseTableFile   = "classified_data_license.csv"
	AgreementTableFile = "classified_data_agreement.csv"
	ProcessingLogFile  = "processing.log"

	OutcomeDelimiter = ','
	TableDelimiter   = ';'
)

// YesNo renders a boolean the way the outcome log stores it.
func YesNo(b bool) string {
	if b {
		return Yes
	}
	return No
}
