package flows

// DefaultVersion is the version stamped on the built-in catalog.
const DefaultVersion = 1

// Category identifiers.
const (
	CategoryBankTransfer       = "bank-transfer"
	CategoryCryptoPayment      = "crypto-payment"
	CategoryOwnAccountTransfer = "own-account-transfer"
	CategoryMarketplace        = "marketplace"
	CategoryGiftCard           = "gift-card"
	CategoryInvestment         = "investment"
	CategoryJobOffer           = "job-offer"
	CategoryOnlineRelationship = "online-relationship"
	CategoryOther              = "other"
)

// MenuCategories returns the top-level menu in display order.
func MenuCategories() []string {
	return []string{
		CategoryBankTransfer,
		CategoryCryptoPayment,
		CategoryOwnAccountTransfer,
		CategoryMarketplace,
		CategoryGiftCard,
		CategoryInvestment,
		CategoryJobOffer,
		CategoryOnlineRelationship,
		CategoryOther,
	}
}

func redFlag(label, value string, weight int, description string, suggests ...string) Option {
	return Option{Label: label, Value: value, RiskWeight: weight, IsRedFlag: true, Description: description, Suggests: suggests}
}

func bestPractice(label, value, description string) Option {
	return Option{Label: label, Value: value, IsBestPractice: true, Description: description}
}

func neutral(label, value string, weight int, description string, suggests ...string) Option {
	return Option{Label: label, Value: value, RiskWeight: weight, Description: description, Suggests: suggests}
}

func single(id, text string, options ...Option) Question {
	return Question{ID: id, Text: text, Kind: KindSingleSelect, Options: options}
}

// Defaults returns a fresh copy of the built-in catalog keyed by category.
func Defaults() map[string]*Flow {
	all := []*Flow{
		bankTransferFlow(),
		cryptoPaymentFlow(),
		ownAccountTransferFlow(),
		marketplaceFlow(),
		giftCardFlow(),
		investmentFlow(),
		jobOfferFlow(),
		onlineRelationshipFlow(),
		otherFlow(),
	}
	out := make(map[string]*Flow, len(all))
	for _, f := range all {
		f.Version = DefaultVersion
		out[f.Category] = f
	}
	return out
}

func bankTransferFlow() *Flow {
	return &Flow{
		Category: CategoryBankTransfer,
		Title:    "Paying someone by bank transfer",
		Questions: []Question{
			single("bt-details-source", "How did you receive the payment details?",
				bestPractice("In person or from someone I already pay", "known-source", "Payment details came from a source you already trust."),
				neutral("By email or message", "email-or-message", 1, "Payment details arrived by email or message; these can be intercepted or faked."),
				redFlag("The details were changed recently", "changed-details", 3, "The payee's bank details changed unexpectedly, a common sign of invoice fraud."),
			),
			single("bt-confirmed-by-phone", "Have you confirmed the payment details by calling a number you already trust?",
				bestPractice("Yes", "yes", "You confirmed the payment details through a trusted phone number."),
				neutral("No", "no", 1, "The payment details have not been confirmed through a trusted phone number."),
			),
			single("bt-urgency", "Are you being pressured to pay urgently?",
				redFlag("Yes", "yes", 3, "You are being pressured to pay urgently."),
				bestPractice("No", "no", "There is no pressure to pay immediately."),
			),
			single("bt-name-check", "Did your bank warn you that the payee name does not match the account?",
				redFlag("Yes", "yes", 3, "Your bank reported that the payee name does not match the account."),
				bestPractice("No", "no", "Your bank's payee name check passed."),
				neutral("I don't know", "dont-know", 1, "You have not checked whether your bank confirmed the payee name."),
			),
			single("bt-goods-received", "Is the payment for goods or services you have received or can verify?",
				bestPractice("Yes", "yes", "The payment is for goods or services you can verify."),
				redFlag("No", "no", 2, "The payment is for something you cannot verify."),
			),
		},
	}
}

func cryptoPaymentFlow() *Flow {
	return &Flow{
		Category: CategoryCryptoPayment,
		Title:    "Paying with cryptocurrency",
		Questions: []Question{
			single("cp-requester", "Who asked you to make this crypto payment?",
				bestPractice("It was my own decision", "self", "Nobody else asked you to pay in crypto."),
				neutral("A friend or family member", "friend-family", 1, "The request came from someone you know; confirm it is really them and not a hacked account."),
				redFlag("Someone I met online", "online-contact", 3, "Someone you only know online asked you to pay in crypto.", CategoryOnlineRelationship),
				redFlag("A company, bank or official", "business-official", 3, "A business or official asked to be paid in crypto; legitimate organisations rarely do this."),
			),
			single("cp-platform", "Are you using a well-known, regulated crypto platform for this payment?",
				bestPractice("Yes", "yes", "You are using a well-known, regulated crypto platform."),
				redFlag("No", "no", 3, "No established crypto platform is being used for the payment."),
				neutral("I don't know", "dont-know", 1, "You are not sure whether the crypto platform is regulated."),
			),
			single("cp-recipient-verified", "Have you verified the identity of the recipient through an independent channel?",
				bestPractice("Yes", "yes", "You verified who the recipient is."),
				redFlag("No", "no", 3, "The identity of the recipient has not been verified."),
			),
			single("cp-quick-profits", "Were you promised quick or guaranteed profits?",
				redFlag("Yes", "yes", 4, "You were promised quick profits, a hallmark of investment scams.", CategoryInvestment),
				bestPractice("No", "no", "No unrealistic returns were promised."),
			),
			single("cp-purpose-clear", "Is the purpose of the payment clear and something you could explain to someone else?",
				bestPractice("Yes", "yes", "The purpose of the payment is clear."),
				redFlag("No", "no", 2, "The purpose of the payment is unclear."),
				neutral("Not sure", "not-sure", 1, "You are not fully sure what the payment is for."),
			),
		},
	}
}

func ownAccountTransferFlow() *Flow {
	return &Flow{
		Category: CategoryOwnAccountTransfer,
		Title:    "Moving money to another account in my name",
		Questions: []Question{
			single("oat-instructed", "Has anyone instructed you to move your money to this account?",
				redFlag("Yes", "yes", 4, "Someone instructed you to move your money; banks and police never ask you to move money to a 'safe account'."),
				bestPractice("No", "no", "Nobody told you to move your money."),
			),
			single("oat-self-opened", "Did you open the receiving account yourself?",
				bestPractice("Yes", "yes", "You opened the receiving account yourself."),
				redFlag("No", "no", 4, "The receiving account was opened by someone else."),
				neutral("I don't know", "dont-know", 2, "You are not sure who opened the receiving account."),
			),
			single("oat-other-access", "Does anyone else have access to the receiving account?",
				bestPractice("No", "no", "Nobody else can access the receiving account."),
				redFlag("Yes", "yes", 3, "Someone else has access to the receiving account."),
				neutral("I don't know", "dont-know", 1, "You are not sure whether anyone else can access the receiving account."),
			),
			single("oat-unexpected-codes", "Have you received unexpected security codes or calls about this transfer?",
				redFlag("Yes", "yes", 3, "You received unexpected security codes or calls, which suggests someone is trying to access your accounts."),
				bestPractice("No", "no", "You have not received unexpected codes or calls."),
			),
			single("oat-viewable-online", "Can you see the receiving account in your own online banking or app?",
				bestPractice("Yes", "yes", "You can view the receiving account online yourself."),
				redFlag("No", "no", 3, "You cannot view the receiving account yourself."),
				neutral("I don't know", "dont-know", 1, "You have not checked that you can view the receiving account."),
			),
			{
				ID:   "oat-app-access",
				Text: "Does anyone else have access to the app?",
				Kind: KindSingleSelect,
				Options: []Option{
					neutral("Yes", "yes", 1, "Someone else can use the banking app."),
					bestPractice("No", "no", "Only you can use the banking app."),
					neutral("I don't know", "dont-know", 1, "You are not sure whether anyone else can use the banking app."),
				},
				NextByAnswer: map[string]int{"yes": 6, "no": 7, "dont-know": 7},
			},
			single("oat-app-who", "Who has access to the app?",
				neutral("My partner or a family member", "partner-family", 1, "A partner or family member can use the banking app; make sure they are not being directed by someone else."),
				redFlag("Someone helping me with the transfer", "helper", 4, "A third party 'helping' with the transfer has access to your app."),
				redFlag("Someone I have never met", "unknown-person", 4, "A person you have never met has access to your app."),
			),
		},
		Reassurances: []Reassurance{
			{
				Answers: []string{"no", "yes", "no", "no", "yes", "no"},
				Summary: "This looks like a transfer between accounts you opened and control yourself, with nobody else involved.",
			},
		},
	}
}

func marketplaceFlow() *Flow {
	return &Flow{
		Category: CategoryMarketplace,
		Title:    "Buying something online",
		Questions: []Question{
			single("mp-outside-platform", "Has the seller asked you to pay outside the marketplace platform?",
				redFlag("Yes", "yes", 4, "The seller wants payment outside the platform, which removes your buyer protection."),
				bestPractice("No", "no", "You are paying through the marketplace platform."),
			),
			single("mp-seen-in-person", "Are you paying before seeing the item in person?",
				neutral("Yes", "yes", 1, "The item has not been seen in person."),
				bestPractice("No", "no", "You have seen the item in person."),
			),
			single("mp-new-profile", "Is the seller's profile new or without reviews?",
				redFlag("Yes", "yes", 2, "The seller's profile is new or has no reviews."),
				bestPractice("No", "no", "The seller has an established profile."),
				neutral("I don't know", "dont-know", 1, "You have not checked the seller's profile history."),
			),
			single("mp-vague-location", "Has the seller been vague about where they or the item are located?",
				redFlag("Yes", "yes", 2, "The seller is vague about their location."),
				bestPractice("No", "no", "The seller's location has been verified."),
			),
		},
		Reassurances: []Reassurance{
			{
				Answers: []string{"no", "no", "no", "no"},
				Summary: "You are paying through the platform for an item you have seen, from an established seller.",
			},
		},
	}
}

func giftCardFlow() *Flow {
	return &Flow{
		Category: CategoryGiftCard,
		Title:    "Being asked to pay with gift cards",
		Questions: []Question{
			single("gc-requester", "Who asked you to pay with gift cards?",
				bestPractice("Nobody, it is a present for someone I know", "present", "The gift card is a present, not a payment."),
				redFlag("A caller claiming to be from a company or government", "caller-official", 4, "A caller claiming authority wants gift cards; no real organisation takes payment this way.", CategoryBankTransfer),
				redFlag("My boss or a colleague by message", "manager-message", 4, "A message from a 'manager' asked for gift cards, a common impersonation trick."),
				redFlag("An online seller", "online-seller", 3, "An online seller wants to be paid in gift cards.", CategoryMarketplace),
				redFlag("Someone I met online", "online-contact", 4, "Someone you met online asked for gift cards.", CategoryOnlineRelationship),
			),
			single("gc-share-codes", "Have you been asked to share the card numbers or PINs?",
				redFlag("Yes", "yes", 4, "You were asked to share gift card numbers or PINs, which hands over the money instantly."),
				bestPractice("No", "no", "Nobody has asked for the card details."),
			),
			single("gc-secrecy", "Were you told to keep the purchase secret?",
				redFlag("Yes", "yes", 3, "You were told to keep the purchase secret."),
				bestPractice("No", "no", "Nobody asked you to keep it secret."),
			),
			single("gc-debt-or-fine", "Is the payment to settle a debt, bill, fine or tax?",
				redFlag("Yes", "yes", 4, "Gift cards are being used to settle a debt, bill, fine or tax."),
				bestPractice("No", "no", "The gift card is not settling a debt or fine."),
			),
		},
	}
}

func investmentFlow() *Flow {
	return &Flow{
		Category: CategoryInvestment,
		Title:    "Considering an investment opportunity",
		Questions: []Question{
			single("inv-source", "How did you hear about this investment?",
				bestPractice("My own research", "own-research", "You found the investment through your own research."),
				redFlag("A social media advert or celebrity endorsement", "social-media-ad", 3, "The investment was promoted through social media or a celebrity endorsement."),
				redFlag("An unexpected call or message", "unsolicited", 4, "You were contacted out of the blue about the investment."),
				neutral("A friend recommended it", "friend", 1, "A friend recommended the investment; check it independently."),
			),
			single("inv-registered", "Is the firm registered with the financial regulator?",
				bestPractice("Yes", "yes", "The firm is registered with the financial regulator."),
				redFlag("No", "no", 4, "The firm is not registered with the financial regulator."),
				neutral("I don't know", "dont-know", 2, "You have not checked the regulator's register."),
			),
			single("inv-guaranteed-returns", "Are the returns guaranteed or unusually high?",
				redFlag("Yes", "yes", 4, "The returns are guaranteed or unusually high."),
				bestPractice("No", "no", "The returns offered are realistic."),
			),
			single("inv-pressure", "Have you been pressured to invest quickly?",
				redFlag("Yes", "yes", 3, "You are being pressured to invest quickly."),
				bestPractice("No", "no", "You are free to take your time."),
			),
			single("inv-withdraw", "Can you withdraw your money at any time without extra fees?",
				bestPractice("Yes", "yes", "You can withdraw your money freely."),
				redFlag("No", "no", 3, "Withdrawing your money is blocked or requires extra fees."),
				neutral("I don't know", "dont-know", 1, "You do not know whether you can withdraw your money."),
			),
		},
	}
}

func jobOfferFlow() *Flow {
	return &Flow{
		Category: CategoryJobOffer,
		Title:    "A job or income opportunity",
		Questions: []Question{
			single("job-source", "How were you offered this job?",
				bestPractice("I applied for it myself", "applied", "You applied for the job yourself."),
				redFlag("An unexpected message", "unsolicited", 3, "The job was offered in an unexpected message."),
				neutral("Through social media", "social-media", 1, "The job was found through social media; check the employer independently."),
			),
			{
				ID:   "job-upfront-payment",
				Text: "Have you been asked to pay anything upfront?",
				Kind: KindSingleSelect,
				Options: []Option{
					redFlag("Yes", "yes", 4, "You were asked to pay upfront to get a job."),
					bestPractice("No", "no", "Nobody asked you to pay upfront."),
				},
				NextByAnswer: map[string]int{"no": 3},
			},
			single("job-upfront-purpose", "What were you asked to pay for?",
				redFlag("Training or equipment", "training-equipment", 3, "You were asked to pay for training or equipment."),
				redFlag("A visa or admin fee", "visa-admin", 3, "You were asked to pay a visa or admin fee."),
				redFlag("Something else", "other-fee", 2, "You were asked to pay a fee before starting work."),
			),
			single("job-money-mule", "Does the job involve receiving and passing on money or parcels?",
				redFlag("Yes", "yes", 5, "The job involves moving money or parcels for others, which may make you a money mule."),
				bestPractice("No", "no", "The job does not involve moving money or parcels."),
				neutral("Not sure", "not-sure", 2, "You are not sure whether the job involves moving money."),
			),
			single("job-employer-verified", "Have you met the employer or verified that the company exists?",
				bestPractice("Yes", "yes", "You verified the employer."),
				neutral("No", "no", 1, "The employer has not been verified."),
			),
		},
	}
}

func onlineRelationshipFlow() *Flow {
	return &Flow{
		Category: CategoryOnlineRelationship,
		Title:    "Someone I met online",
		Questions: []Question{
			single("or-met-how", "How did you meet this person?",
				bestPractice("In person", "in-person", "You met this person in real life."),
				neutral("On a dating app", "dating-app", 1, "You met on a dating app."),
				neutral("They messaged me on social media", "social-message", 2, "They contacted you first on social media."),
			),
			single("or-met-live", "Have you met them in person or on a live video call?",
				bestPractice("Yes", "yes", "You have seen this person live."),
				redFlag("No", "no", 3, "You have never met them in person or on a live video call."),
			),
			single("or-money-request", "Have they asked you for money, gifts or help with a payment?",
				redFlag("Yes", "yes", 4, "They asked you for money, gifts or help with a payment."),
				bestPractice("No", "no", "They have not asked you for money."),
			),
			single("or-excuses", "Do they keep giving reasons they cannot meet, such as working abroad?",
				redFlag("Yes", "yes", 3, "They keep finding reasons not to meet."),
				bestPractice("No", "no", "They have not avoided meeting."),
			),
		},
	}
}

func otherFlow() *Flow {
	return &Flow{
		Category: CategoryOther,
		Title:    "Something else",
		Questions: []Question{
			{
				ID:   "other-situation",
				Text: "Which of these best describes your situation?",
				Kind: KindRouting,
				Options: []Option{
					{Label: "Buying or selling an item", Value: "purchase-or-item"},
					{Label: "An investment opportunity", Value: "investment-opportunity"},
					{Label: "Someone wants payment in crypto", Value: "crypto-request"},
					{Label: "I've been told to move my money", Value: "move-money"},
					{Label: "Paying a person or an invoice", Value: "pay-person-or-invoice"},
					{Label: "Someone wants gift cards", Value: "gift-card-request"},
					{Label: "A job or way to earn money", Value: "job-or-income"},
					{Label: "Someone I met online", Value: "online-relationship"},
					{Label: "My account safety or security", Value: "safety-security"},
					{Label: "None of these / I'm not sure", Value: "none-not-sure"},
				},
			},
			single("other-unexpected-contact", "Were you contacted unexpectedly by phone, text, email or social media?",
				redFlag("Yes", "yes", 3, "You were contacted unexpectedly.", CategoryBankTransfer, CategoryInvestment),
				bestPractice("No", "no", "You started the contact yourself."),
			),
			single("other-pressure", "Are you being pressured to act immediately?",
				redFlag("Yes", "yes", 3, "You are being pressured to act immediately."),
				bestPractice("No", "no", "There is no pressure to act immediately."),
			),
			single("other-credentials", "Have you been asked for passwords, PINs or one-time codes?",
				redFlag("Yes", "yes", 5, "You were asked for passwords, PINs or one-time codes.", CategoryOwnAccountTransfer),
				bestPractice("No", "no", "Nobody asked for your security details."),
			),
			single("other-secrecy", "Has someone asked you to keep this secret from family or your bank?",
				redFlag("Yes", "yes", 4, "You were asked to keep this secret.", CategoryOnlineRelationship, CategoryGiftCard),
				bestPractice("No", "no", "Nobody asked you to keep this secret."),
			),
			single("other-verified", "Have you checked who you are dealing with using official contact details?",
				bestPractice("Yes", "yes", "You verified the contact using official details."),
				neutral("No", "no", 1, "You have not verified the contact using official details."),
				neutral("Not sure how", "not-sure", 1, "You are not sure how to verify who you are dealing with."),
			),
		},
	}
}
