package email

import (
	"fmt"
	"strings"
)

// OrderSummary — данные заказа, попадающие в письмо.
type OrderSummary struct {
	ClaimCode           string
	SubTotalCents       int64
	DiscountAmountCents int64
	FinalTotalCents     int64
	Items               []OrderItem
}

// OrderItem — позиция заказа в письме.
type OrderItem struct {
	Title          string
	Quantity       int
	UnitPriceCents int64
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func buildItemsTable(items []OrderItem) string {
	var b strings.Builder
	b.WriteString(`<table style="width: 100%; border-collapse: collapse; margin: 16px 0;">
	<thead>
		<tr style="background: #f5f5f5;">
			<th style="padding: 8px; text-align: left;">Title</th>
			<th style="padding: 8px; text-align: center;">Qty</th>
			<th style="padding: 8px; text-align: right;">Price</th>
			<th style="padding: 8px; text-align: right;">Subtotal</th>
		</tr>
	</thead>
	<tbody>`)
	for _, it := range items {
		b.WriteString(fmt.Sprintf(`
		<tr>
			<td style="padding: 8px; border-bottom: 1px solid #eee;">%s</td>
			<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: center;">%d</td>
			<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
			<td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">%s</td>
		</tr>`,
			it.Title, it.Quantity, formatCents(it.UnitPriceCents), formatCents(it.UnitPriceCents*int64(it.Quantity))))
	}
	b.WriteString(`
	</tbody>
</table>`)
	return b.String()
}

func buildTotals(o OrderSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf(`<p style="text-align: right; margin: 4px 0;">Subtotal: %s</p>`, formatCents(o.SubTotalCents)))
	if o.DiscountAmountCents > 0 {
		b.WriteString(fmt.Sprintf(`<p style="text-align: right; margin: 4px 0;">Discount: -%s</p>`, formatCents(o.DiscountAmountCents)))
	}
	b.WriteString(fmt.Sprintf(`<p style="text-align: right; margin: 4px 0; font-size: 18px;"><strong>Total: %s</strong></p>`, formatCents(o.FinalTotalCents)))
	return b.String()
}

func wrapBody(title, lead, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: sans-serif; line-height: 1.5; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="font-size: 22px;">%s</h1>
	<p>%s</p>
	%s
	<hr style="border: none; border-top: 1px solid #eee; margin: 24px 0;">
	<p style="font-size: 12px; color: #999;">This is an automated message, please do not reply.</p>
</body>
</html>`, title, lead, content)
}

func claimCodeBlock(code string) string {
	return fmt.Sprintf(`<div style="background: #f5f5f5; padding: 12px; border-radius: 4px; margin: 16px 0;">
		<p style="margin: 0; font-size: 13px; color: #666;">Claim code</p>
		<p style="margin: 4px 0 0 0; font-size: 20px; font-weight: bold; font-family: monospace;">%s</p>
	</div>`, code)
}

func buildOrderConfirmationBody(o OrderSummary) string {
	content := claimCodeBlock(o.ClaimCode) + buildItemsTable(o.Items) + buildTotals(o)
	return wrapBody("Thank you for your order",
		"Your order has been placed. Show the claim code below when picking it up.",
		content)
}

func buildReadyForPickupBody(o OrderSummary) string {
	content := claimCodeBlock(o.ClaimCode) + buildItemsTable(o.Items)
	return wrapBody("Your order is ready",
		"Your order has been prepared and is waiting for you at the pickup counter.",
		content)
}

func buildOrderCompletedBody(o OrderSummary) string {
	content := claimCodeBlock(o.ClaimCode) + buildTotals(o)
	return wrapBody("Order completed",
		"Your order has been picked up. We hope you enjoy your books.",
		content)
}

func buildOrderCancellationBody(o OrderSummary) string {
	content := claimCodeBlock(o.ClaimCode) + buildTotals(o)
	return wrapBody("Order cancelled",
		"Your order has been cancelled. Any reserved items have been returned to stock.",
		content)
}

func buildPasswordResetBody(code string) string {
	content := fmt.Sprintf(`<div style="background: #f5f5f5; padding: 12px; border-radius: 4px; margin: 16px 0;">
		<p style="margin: 0; font-size: 20px; font-weight: bold; font-family: monospace; text-align: center;">%s</p>
	</div>
	<p style="font-size: 13px; color: #666;">The code expires in 15 minutes. If you did not request a reset, ignore this message.</p>`, code)
	return wrapBody("Password reset",
		"Use the code below to reset your password.",
		content)
}
