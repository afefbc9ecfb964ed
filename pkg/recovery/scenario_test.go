// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-dkg.
//
// go-dkg is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package recovery_test

import (
	"context"
	"crypto/rand"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jeremyhahn/go-dkg/pkg/crypto/gost"
	"github.com/jeremyhahn/go-dkg/pkg/dkg"
	"github.com/jeremyhahn/go-dkg/pkg/recovery"
	"github.com/jeremyhahn/go-dkg/pkg/storage"
	"github.com/jeremyhahn/go-dkg/pkg/storage/file"
	"github.com/jeremyhahn/go-dkg/pkg/threshold/vss"
)

func name(i int) string { return fmt.Sprintf("participant-%d", i) }

var _ = Describe("Five party ceremony with threshold three", func() {
	const n, t = 5, 3

	for _, backend := range []string{"memory", "file"} {
		Context("on the "+backend+" store", func() {
			var (
				ctx        context.Context
				store      storage.Transactional
				keygen     *dkg.Manager
				recoveries *recovery.Manager
				ceremony   *dkg.Ceremony
				session    *dkg.Session
			)

			BeforeEach(func() {
				ctx = context.Background()
				if backend == "file" {
					var err error
					store, err = file.New(GinkgoT().TempDir())
					Expect(err).NotTo(HaveOccurred())
				} else {
					store = storage.NewMemory()
				}
				DeferCleanup(store.Close)

				var err error
				keygen, err = dkg.NewManager(dkg.Config{Store: store})
				Expect(err).NotTo(HaveOccurred())
				recoveries, err = recovery.NewManager(recovery.Config{Store: store})
				Expect(err).NotTo(HaveOccurred())
				ceremony, err = dkg.NewCeremony(keygen, n, name, rand.Reader)
				Expect(err).NotTo(HaveOccurred())

				session, err = keygen.CreateSession(ctx, dkg.CreateSessionRequest{ID: "scenario", N: n, T: t})
				Expect(err).NotTo(HaveOccurred())
				Expect(ceremony.Join(ctx, session.ID)).To(Succeed())
				Expect(ceremony.Commit(ctx, session)).To(Succeed())
				Expect(ceremony.Exchange(ctx, session.ID)).To(Succeed())
			})

			It("becomes eligible once all five report the same Q hash", func() {
				commitments, err := keygen.ListCommitments(ctx, session.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(commitments).To(HaveLen(n))
				for _, c := range commitments {
					Expect(c.Points).To(HaveLen(t))
				}

				var report *dkg.ReadinessReport
				for i, p := range ceremony.Parties {
					req, err := p.Ready(session.ID, session.Epoch, commitments)
					Expect(err).NotTo(HaveOccurred())
					report, err = keygen.SubmitReady(ctx, session.ID, req)
					Expect(err).NotTo(HaveOccurred())
					Expect(report.Submitted).To(Equal(i + 1))
					Expect(report.Eligible).To(Equal(i == n-1))
				}
				Expect(report.Groups).To(HaveLen(1))

				_, err = keygen.MarkReady(ctx, session.ID)
				Expect(err).NotTo(HaveOccurred())
				final, err := keygen.Finalize(ctx, session.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(final.Status).To(Equal(dkg.StatusFinalized))
			})

			Context("after finalization", func() {
				var requester *gost.PrivateKey

				BeforeEach(func() {
					Expect(ceremony.Ready(ctx, session.ID)).To(Succeed())
					_, err := keygen.MarkReady(ctx, session.ID)
					Expect(err).NotTo(HaveOccurred())
					_, err = keygen.Finalize(ctx, session.ID)
					Expect(err).NotTo(HaveOccurred())
					requester, err = gost.Default().GenerateKey(rand.Reader)
					Expect(err).NotTo(HaveOccurred())
				})

				It("recovers the group key from three of five receipts", func() {
					rs, err := recoveries.Create(ctx, recovery.CreateRequest{
						Source:             recovery.Source{Kind: recovery.SourceDKG, ID: session.ID},
						Requester:          "auditor",
						RequesterPublicKey: requester.Public().Hex(),
					})
					Expect(err).NotTo(HaveOccurred())
					Expect(rs.Threshold).To(Equal(t))

					shares, err := ceremony.SecretShares(n)
					Expect(err).NotTo(HaveOccurred())

					completed := 0
					for _, id := range []string{name(5), name(2), name(3)} {
						y, err := vss.CurveOrderField().ParseScalar(shares[id].Share)
						Expect(err).NotTo(HaveOccurred())
						ct, err := recovery.SealShare(rand.Reader, requester.Public(), rs.ID, id, y)
						Expect(err).NotTo(HaveOccurred())
						res, err := recoveries.SubmitReceipt(ctx, rs.ID, recovery.ReceiptRequest{Shareholder: id, Ciphertext: ct})
						Expect(err).NotTo(HaveOccurred())
						if res.Completed {
							completed++
						}
					}
					Expect(completed).To(Equal(1))

					got, err := recoveries.Get(ctx, rs.ID)
					Expect(err).NotTo(HaveOccurred())
					Expect(got.Status).To(Equal(recovery.StatusDone))

					pairs, err := recoveries.GetReconstructableShares(ctx, rs.ID)
					Expect(err).NotTo(HaveOccurred())
					Expect(pairs).To(HaveLen(3))
					xs := []uint64{pairs[0].X, pairs[1].X, pairs[2].X}
					Expect(xs).To(Equal([]uint64{2, 3, 5}))

					secret, err := recovery.Recover(requester, rs, pairs)
					Expect(err).NotTo(HaveOccurred())
					q, err := keygen.GroupPublicKey(ctx, session.ID)
					Expect(err).NotTo(HaveOccurred())
					Expect(gost.Default().ScalarBaseMult(secret).Equal(q.Point())).To(BeTrue())
				})

				It("rejects a second receipt from the same shareholder", func() {
					rs, err := recoveries.Create(ctx, recovery.CreateRequest{
						Source:             recovery.Source{Kind: recovery.SourceDKG, ID: session.ID},
						Requester:          "auditor",
						RequesterPublicKey: requester.Public().Hex(),
					})
					Expect(err).NotTo(HaveOccurred())

					req := recovery.ReceiptRequest{Shareholder: name(1), Ciphertext: "0102"}
					_, err = recoveries.SubmitReceipt(ctx, rs.ID, req)
					Expect(err).NotTo(HaveOccurred())
					_, err = recoveries.SubmitReceipt(ctx, rs.ID, recovery.ReceiptRequest{Shareholder: name(1), Ciphertext: "0304"})
					Expect(err).To(MatchError(dkg.ErrAlreadySubmitted))

					receipts, err := recoveries.ListReceipts(ctx, rs.ID)
					Expect(err).NotTo(HaveOccurred())
					Expect(receipts).To(HaveLen(1))
					Expect(receipts[0].Ciphertext).To(Equal("0102"))
				})
			})
		})
	}
})
