package cli

import (
	"errors"
	"fmt"

	"github.com/Flyrell/gatepass/internal/access"
	"github.com/Flyrell/gatepass/internal/backend"
	"github.com/Flyrell/gatepass/internal/scan"
	"github.com/Flyrell/gatepass/internal/session"
)

type msgKey int

const (
	msgMalformed msgKey = iota
	msgMemberNotFound
	msgAuthFailed
	msgSubmissionFailed
	msgNetwork
	msgNoSession
	msgForbidden
	msgExpired
	msgCameraUnavailable
	msgCameraBusy
	msgFetchGroupsFailed
	msgDeleteFailed

	msgScannerTitle
	msgOpenCamera
	msgStopCamera
	msgScanAgain
	msgChecking
	msgGranted
	msgDenied
	msgAlreadyEntered
	msgFirstEntry
	msgGroupNumber
	msgTypeCode

	msgDashboardTitle
	msgTotalAccess
	msgActualEntries
	msgAccessCount
	msgEnteredCount
	msgHasAccess
	msgEntered
	msgMembers
	msgLoading
	msgNoGroups

	msgEmail
	msgPassword
	msgAccessPermits
	msgConfirm
	msgGroupUpdated
	msgGrantedTomorrow
	msgNoneTomorrow
	msgLoggedInAs
	msgNextCommand
	msgLoggedOut

	msgQuitHint
	msgDashboardKeys
)

var catalog = map[string]map[msgKey]string{
	"en": {
		msgMalformed:         "Invalid QR code",
		msgMemberNotFound:    "Member not found",
		msgAuthFailed:        "Invalid email or password",
		msgSubmissionFailed:  "Failed to update access permissions",
		msgNetwork:           "Backend request failed",
		msgNoSession:         "Not logged in. Run 'gatepass login' first",
		msgForbidden:         "Your role is not allowed to do this",
		msgExpired:           "Session expired. Run 'gatepass login' again",
		msgCameraUnavailable: "Cannot access camera",
		msgCameraBusy:        "Camera is already in use",
		msgFetchGroupsFailed: "Error fetching groups",
		msgDeleteFailed:      "Error deleting member",

		msgScannerTitle:   "QR Scanner",
		msgOpenCamera:     "Press enter to open the camera",
		msgStopCamera:     "esc: stop camera",
		msgScanAgain:      "enter: scan again",
		msgChecking:       "Checking...",
		msgGranted:        "Access granted",
		msgDenied:         "No access today",
		msgAlreadyEntered: "Member already entered",
		msgFirstEntry:     "First entry recorded",
		msgGroupNumber:    "Group:",
		msgTypeCode:       "Scan or type a code:",

		msgDashboardTitle: "Admin Dashboard",
		msgTotalAccess:    "Total access granted",
		msgActualEntries:  "Actual entries",
		msgAccessCount:    "Access",
		msgEnteredCount:   "Entered",
		msgHasAccess:      "has access",
		msgEntered:        "entered",
		msgMembers:        "members",
		msgLoading:        "Loading...",
		msgNoGroups:       "No groups",

		msgEmail:           "Email",
		msgPassword:        "Password",
		msgAccessPermits:   "Access permits",
		msgConfirm:         "Submit access changes?",
		msgGroupUpdated:    "Group %s updated successfully",
		msgGrantedTomorrow: "Members with access on %s:",
		msgNoneTomorrow:    "No members have access on %s",
		msgLoggedInAs:      "logged in as %s (%s)",
		msgNextCommand:     "next: gatepass %s",
		msgLoggedOut:       "logged out",

		msgQuitHint:      "q: quit",
		msgDashboardKeys: "j/k: move  enter: details  r: refresh  q: quit",
	},
	"ar": {
		msgMalformed:         "رمز QR غير صالح",
		msgMemberNotFound:    "العضو غير موجود",
		msgAuthFailed:        "البريد الإلكتروني أو كلمة المرور غير صحيحة",
		msgSubmissionFailed:  "فشل تحديث صلاحيات الدخول",
		msgNetwork:           "فشل الاتصال بالخادم",
		msgNoSession:         "يجب تسجيل الدخول أولاً",
		msgForbidden:         "لا تملك صلاحية لهذه العملية",
		msgExpired:           "انتهت الجلسة، يرجى تسجيل الدخول مجدداً",
		msgCameraUnavailable: "تعذر الوصول إلى الكاميرا",
		msgCameraBusy:        "الكاميرا قيد الاستخدام",
		msgFetchGroupsFailed: "خطأ في جلب المجموعات",
		msgDeleteFailed:      "خطأ في حذف العضو",

		msgScannerTitle:   "ماسح QR",
		msgOpenCamera:     "اضغط لفتح الكاميرا",
		msgStopCamera:     "إيقاف الكاميرا",
		msgScanAgain:      "مسح مرة أخرى",
		msgChecking:       "جاري التحقق...",
		msgGranted:        "دخول مسموح",
		msgDenied:         "لا يملك إذن الدخول",
		msgAlreadyEntered: "تم دخول العضو مسبقًا",
		msgFirstEntry:     "تسجيل الدخول للمرة الأولى",
		msgGroupNumber:    "رقم المجموعة:",
		msgTypeCode:       "امسح أو اكتب الرمز:",

		msgDashboardTitle: "لوحة تحكم المسؤول",
		msgTotalAccess:    "عدد التصاريح الجملي",
		msgActualEntries:  "الدخول الفعلي",
		msgAccessCount:    "عدد التصاريح",
		msgEnteredCount:   "دخلوا",
		msgHasAccess:      "لديه دخول",
		msgEntered:        "دخل",
		msgMembers:        "أفراد",
		msgLoading:        "جاري التحميل...",
		msgNoGroups:       "لا توجد مجموعات",

		msgEmail:           "البريد الإلكتروني",
		msgPassword:        "كلمة المرور",
		msgAccessPermits:   "تصاريح الدخول",
		msgConfirm:         "تأكيد",
		msgGroupUpdated:    "تم تحديث مجموعة %s بنجاح",
		msgGrantedTomorrow: "الأعضاء الذين لديهم صلاحية الدخول غداً (%s)",
		msgNoneTomorrow:    "لا يوجد أعضاء لديهم صلاحية دخول غداً (%s)",
		msgLoggedInAs:      "تم تسجيل الدخول باسم %s (%s)",
		msgNextCommand:     "التالي: gatepass %s",
		msgLoggedOut:       "تم تسجيل الخروج",

		msgQuitHint:      "q: خروج",
		msgDashboardKeys: "j/k: تنقل  enter: التفاصيل  r: تحديث  q: خروج",
	},
}

// T returns the message for key in lang, falling back to English.
func T(lang string, key msgKey) string {
	if s, ok := catalog[lang][key]; ok {
		return s
	}
	return catalog["en"][key]
}

// Localize turns an error into the message shown to the user.
func Localize(err error, lang string) string {
	if err == nil {
		return ""
	}

	var submission *access.SubmissionError
	var network *backend.NetworkError
	switch {
	case errors.Is(err, scan.ErrMalformedPayload):
		return T(lang, msgMalformed)
	case errors.Is(err, backend.ErrMemberNotFound):
		return T(lang, msgMemberNotFound)
	case errors.Is(err, backend.ErrAuthFailed):
		return T(lang, msgAuthFailed)
	case errors.Is(err, session.ErrNoSession):
		return T(lang, msgNoSession)
	case errors.Is(err, session.ErrSessionExpired):
		return T(lang, msgExpired)
	case errors.Is(err, session.ErrForbidden):
		return T(lang, msgForbidden)
	case errors.Is(err, scan.ErrCameraBusy):
		return T(lang, msgCameraBusy)
	case errors.Is(err, scan.ErrCameraUnavailable):
		return T(lang, msgCameraUnavailable)
	case errors.As(err, &submission):
		return T(lang, msgSubmissionFailed)
	case errors.As(err, &network):
		return fmt.Sprintf("%s: %v", T(lang, msgNetwork), network.Err)
	}
	return err.Error()
}
