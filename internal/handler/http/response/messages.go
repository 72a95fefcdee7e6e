package response

import (
	"net/http"

	"golang.org/x/text/language"
)

var supported = []language.Tag{
	language.English, // first entry is the fallback
	language.Indonesian,
}

var matcher = language.NewMatcher(supported)

var messages = map[language.Tag]map[string]string{
	language.English: {
		CodeUnauthorized:       "Please sign in to record attendance.",
		CodeCSRFInvalid:        "Your session token is invalid. Refresh the page and try again.",
		CodeInvalidInput:       "The request body is not valid JSON.",
		CodeInvalidAction:      "Action must be checkin or checkout.",
		CodeMissingLocation:    "Location is required. Enable location access and try again.",
		CodeInvalidCoordinates: "The reported location is not a valid coordinate.",
		CodeNoBranch:           "No active branch is available for your check-in.",
		CodeOutOfGeofence:      "You are outside the allowed check-in area.",
		CodeCheckInTooEarly:    "It is too early to check in.",
		CodeCheckInClosed:      "The check-in window has closed for today.",
		CodeCheckOutTooEarly:   "It is too early to check out.",
		CodeCheckOutClosed:     "The check-out window has closed for today.",
		CodeDuplicateCheckIn:   "You have already checked in today.",
		CodeNoOpenCheckIn:      "You have not checked in today.",
		CodeServerError:        "Something went wrong. Please try again.",
		CodeNotFound:           "The requested resource was not found.",
		CodeMethodNotAllowed:   "This method is not allowed for the requested resource.",
	},
	language.Indonesian: {
		CodeUnauthorized:       "Silakan masuk untuk mencatat kehadiran.",
		CodeCSRFInvalid:        "Token sesi tidak valid. Muat ulang halaman dan coba lagi.",
		CodeInvalidInput:       "Isi permintaan bukan JSON yang valid.",
		CodeInvalidAction:      "Aksi harus checkin atau checkout.",
		CodeMissingLocation:    "Lokasi wajib diisi. Aktifkan akses lokasi dan coba lagi.",
		CodeInvalidCoordinates: "Lokasi yang dikirim bukan koordinat yang valid.",
		CodeNoBranch:           "Tidak ada cabang aktif untuk absensi Anda.",
		CodeOutOfGeofence:      "Anda berada di luar area absensi yang diizinkan.",
		CodeCheckInTooEarly:    "Terlalu awal untuk absen masuk.",
		CodeCheckInClosed:      "Waktu absen masuk hari ini sudah ditutup.",
		CodeCheckOutTooEarly:   "Terlalu awal untuk absen pulang.",
		CodeCheckOutClosed:     "Waktu absen pulang hari ini sudah ditutup.",
		CodeDuplicateCheckIn:   "Anda sudah absen masuk hari ini.",
		CodeNoOpenCheckIn:      "Anda belum absen masuk hari ini.",
		CodeServerError:        "Terjadi kesalahan. Silakan coba lagi.",
		CodeNotFound:           "Sumber yang diminta tidak ditemukan.",
		CodeMethodNotAllowed:   "Metode ini tidak diizinkan untuk sumber yang diminta.",
	},
}

// Language picks the supported language closest to the Accept-Language header.
func Language(r *http.Request) language.Tag {
	if r == nil {
		return supported[0]
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return supported[0]
	}
	return supported[idx]
}

// Message returns the localized text for code, falling back to English.
func Message(r *http.Request, code string) string {
	if msg, ok := messages[Language(r)][code]; ok {
		return msg
	}
	if msg, ok := messages[supported[0]][code]; ok {
		return msg
	}
	return code
}
