package prompts

// IndianLendingContext anchors every agent in the Indian retail lending
// landscape. Appended to role prompts so responses reference the right
// institutions, bureaus, and regulations.
const IndianLendingContext = `
## Indian Lending Context
- Credit bureaus: CIBIL (TransUnion), Experian, Equifax, CRIF High Mark; scores range 300-900, 750+ is prime
- Major lenders: HDFC Bank, ICICI Bank, Axis Bank, SBI, Kotak Mahindra, IndusInd, Yes Bank, plus NBFCs (Bajaj Finserv, Tata Capital)
- Personal loan rates typically 10-14% p.a. for salaried prime borrowers; NBFCs and sub-prime go higher
- Lenders generally cap FOIR/DTI near 50%; above that approval odds drop sharply
- RBI regulates lending practices; repo-rate moves flow into floating rates
- Salaried income is verified via salary slips and Form 16; self-employed via ITR`

// IndianNumberFormat tells agents how to present currency figures.
const IndianNumberFormat = `
## Number Formatting
- Always use ₹ (INR) for amounts
- Use the Indian grouping system: ₹1,00,000 (1 Lakh), ₹1,00,00,000 (1 Crore)
- Express large amounts in Lakhs/Crores, e.g. "₹5 Lakh loan", not "₹500,000"`

// IndianLendingPromptSuffix is appended to each agent's role instructions.
func IndianLendingPromptSuffix() string {
	return IndianLendingContext + "\n" + IndianNumberFormat
}
