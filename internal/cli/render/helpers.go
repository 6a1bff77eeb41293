package render

import (
	"math/big"
	"strings"

	"github.com/fatih/color"
)

var (
	headerStyle   = color.New(color.Bold, color.FgHiWhite)
	addressStyle  = color.New(color.FgGreen)
	knownStyle    = color.New(color.FgCyan)
	faintStyle    = color.New(color.Faint)
	warningStyle  = color.New(color.FgYellow)
	errorStyle    = color.New(color.FgRed)
	successStyle  = color.New(color.FgGreen)
	weiPerEther   = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	etherDecimals = 18
)

// FormatWarning formats a warning message with the warning icon
func FormatWarning(message string) string {
	return warningStyle.Sprintf("⚠️  %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	if len(message) > 0 {
		message = strings.ToUpper(message[:1]) + message[1:]
	}
	return errorStyle.Sprintf("❌ %s", message)
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return successStyle.Sprintf("✅ %s", message)
}

// FormatEther renders a wei amount as a decimal ether string without trailing zeros
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}

	sign := ""
	abs := new(big.Int).Set(wei)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}

	whole, frac := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))
	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	fracStr := frac.String()
	fracStr = strings.Repeat("0", etherDecimals-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")
	return sign + whole.String() + "." + fracStr
}
